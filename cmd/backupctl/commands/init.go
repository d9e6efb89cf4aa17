package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backupd/backupd/internal/cliprompt"
	"github.com/backupd/backupd/pkg/config"
	"github.com/backupd/backupd/pkg/crypto"
)

var (
	initForce    bool
	initDriver   string
	initRoot     string
	initCacheDir string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository: config file and key file",
	Long: `Initialize a new backupd repository.

Generates a fresh MAC key and sealing keypair, wraps the private key under
a password you enter interactively, and writes both the key file and a
starter configuration file.

Examples:
  # Initialize at the default config location
  backupctl init --storage-root /mnt/backups

  # Initialize at a custom config path
  backupctl init --config /etc/backupd/config.yaml --storage-root /mnt/backups`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config or key file")
	initCmd.Flags().StringVar(&initDriver, "storage-driver", "local", "storage backend: local or s3")
	initCmd.Flags().StringVar(&initRoot, "storage-root", "", "root directory for the local storage backend")
	initCmd.Flags().StringVar(&initCacheDir, "cache-dir", "", "directory for the object/files cache databases")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	cfg.Storage.Driver = initDriver
	if initRoot != "" {
		cfg.Storage.Local.Root = initRoot
	}
	if initCacheDir != "" {
		cfg.Cache.Dir = initCacheDir
	}
	config.ApplyDefaults(cfg)

	if _, err := os.Stat(cfg.Crypto.KeyFile); err == nil && !initForce {
		return fmt.Errorf("key file already exists at %s (use --force to overwrite)", cfg.Crypto.KeyFile)
	}

	password, err := cliprompt.NewPassword()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	if err := generateKeyFile(cfg.Crypto.KeyFile, password); err != nil {
		return fmt.Errorf("generate key file: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("generated config failed validation: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Repository initialized.\n")
	fmt.Printf("  Config:   %s\n", configPath)
	fmt.Printf("  Key file: %s\n", cfg.Crypto.KeyFile)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add backup sets to the config file's backup_sets list.")
	fmt.Printf("  2. Scan a set:   backupctl scan <name> --config %s\n", configPath)
	fmt.Printf("  3. Back it up:   backupctl backup <name> --config %s\n", configPath)
	return nil
}

func generateKeyFile(path, password string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	macKey, err := crypto.GenerateMACKey()
	if err != nil {
		return err
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	wrapped, err := crypto.WrapPrivateKey(password, kp.Private, crypto.DefaultKDFParams())
	if err != nil {
		return err
	}
	kf := &crypto.KeyFile{MACKey: macKey, PublicKey: kp.Public, PrivateKey: wrapped}
	return crypto.SaveKeyFile(path, kf)
}
