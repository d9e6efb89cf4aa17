// Package cliprompt provides the interactive terminal prompts backupctl
// needs when a repository password or overwrite confirmation can't come
// from a flag.
package cliprompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user cancels a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// ErrPasswordMismatch indicates a password and its confirmation disagree.
var ErrPasswordMismatch = errors.New("passwords do not match")

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// Password reads a masked password from the terminal.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	result, err := p.Run()
	return result, wrap(err)
}

// NewPassword reads a new repository password twice and fails with
// ErrPasswordMismatch if the two entries disagree.
func NewPassword() (string, error) {
	first, err := passwordWithMinLength("Password", 8)
	if err != nil {
		return "", err
	}
	confirm, err := Password("Confirm password")
	if err != nil {
		return "", err
	}
	if first != confirm {
		return "", ErrPasswordMismatch
	}
	return first, nil
}

func passwordWithMinLength(label string, minLength int) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < minLength {
				return fmt.Errorf("password must be at least %d characters", minLength)
			}
			return nil
		},
	}
	result, err := p.Run()
	return result, wrap(err)
}

// Confirm prompts for yes/no confirmation, defaulting to defaultYes when
// the user presses Enter without typing anything.
func Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}
	p := promptui.Prompt{Label: fmt.Sprintf("%s [%s]", label, defaultStr), IsConfirm: true}
	if defaultYes {
		p.Default = "y"
	}

	_, err := p.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return false, ErrAborted
		}
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConfirmOrForce returns true immediately when force is set, otherwise
// prompts for confirmation.
func ConfirmOrForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}
