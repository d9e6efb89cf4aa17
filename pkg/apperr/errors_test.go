package apperr

import (
	"errors"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("objects/deadbeef")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrNotFound)
	}
	if err.Path != "objects/deadbeef" {
		t.Errorf("Path = %q, want %q", err.Path, "objects/deadbeef")
	}
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("nightly-2026-07-31")

	if err.Code != ErrAlreadyExists {
		t.Errorf("Code = %v, want %v", err.Code, ErrAlreadyExists)
	}
	if err.Path != "nightly-2026-07-31" {
		t.Errorf("Path = %q, want %q", err.Path, "nightly-2026-07-31")
	}
}

func TestFSError(t *testing.T) {
	cause := errors.New("permission denied")
	err := FSError("/home/user/photos", cause)

	if err.Code != ErrFS {
		t.Errorf("Code = %v, want %v", err.Code, ErrFS)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected Is(err, cause) to be true")
	}
}

func TestIOError(t *testing.T) {
	cause := errors.New("connection reset")
	err := IOError("objects/deadbeef", cause)

	if err.Code != ErrIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrIO)
	}
	if err.Path != "objects/deadbeef" {
		t.Errorf("Path = %q, want %q", err.Path, "objects/deadbeef")
	}
}

func TestAuthFail(t *testing.T) {
	err := AuthFail("objects/deadbeef")

	if err.Code != ErrAuthFail {
		t.Errorf("Code = %v, want %v", err.Code, ErrAuthFail)
	}
}

func TestCacheCorruption(t *testing.T) {
	err := CacheCorruption("dangling edge for deadbeef")

	if err.Code != ErrCacheCorruption {
		t.Errorf("Code = %v, want %v", err.Code, ErrCacheCorruption)
	}
	if err.Message != "dangling edge for deadbeef" {
		t.Errorf("Message = %q, want %q", err.Message, "dangling edge for deadbeef")
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &Error{Code: ErrNotFound, Message: "object not found", Path: "objects/deadbeef"},
			wantMsg: "NotFound: object not found (path: objects/deadbeef)",
		},
		{
			name:    "without path",
			err:     &Error{Code: ErrCancelled, Message: "operation cancelled"},
			wantMsg: "Cancelled: operation cancelled",
		},
		{
			name:    "with wrapped cause",
			err:     &Error{Code: ErrIO, Message: "put failed", Path: "objects/deadbeef", Err: errors.New("timeout")},
			wantMsg: "IOError: put failed (path: objects/deadbeef): timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsNotFound(NotFound("x")) {
		t.Error("IsNotFound should match a NotFound error")
	}
	if IsNotFound(AlreadyExists("x")) {
		t.Error("IsNotFound should not match an AlreadyExists error")
	}
	if !IsAuthFail(AuthFail("x")) {
		t.Error("IsAuthFail should match an AuthFail error")
	}
	if !IsCacheCorruption(CacheCorruption("x")) {
		t.Error("IsCacheCorruption should match a CacheCorruption error")
	}
	if !IsCancelled(Cancelled()) {
		t.Error("IsCancelled should match a Cancelled error")
	}
	if !IsInvalidArgument(InvalidArgument("x")) {
		t.Error("IsInvalidArgument should match an InvalidArgument error")
	}

	wrapped := Wrap(ErrNotFound, "lookup failed", NotFound("inner"))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should match through Wrap")
	}
}
