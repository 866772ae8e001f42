// Package lode publishes icupack build outputs to a lode store and keeps a
// per-build ledger dataset.
//
// Storage failures are classified into sentinel kinds so callers can use
// errors.Is instead of matching on backend-specific messages.
package lode

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for storage failures.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrDiskFull         = errors.New("no space left on device")
	ErrTimeout          = errors.New("operation timed out")
	ErrThrottled        = errors.New("rate limited")
	ErrAuth             = errors.New("authentication failed")
	ErrAccessDenied     = errors.New("access denied")
	ErrNetwork          = errors.New("network error")

	// ErrUnclassified is the kind used when no rule matches.
	ErrUnclassified = errors.New("storage error")
)

// StorageError wraps a backend error with its kind, the operation and the
// object path involved.
type StorageError struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the backend error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is matches the error's kind.
func (e *StorageError) Is(target error) bool { return errors.Is(e.Kind, target) }

// wrapStorageError classifies err. Returns nil if err is nil.
func wrapStorageError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classifyError(err), Op: op, Path: path, Err: err}
}

// classifyRule maps message fragments to a kind. Rules are checked in order.
type classifyRule struct {
	kind      error
	fragments []string
}

var classifyRules = []classifyRule{
	{ErrAccessDenied, []string{"accessdenied", "forbidden", "403"}},
	{ErrPermissionDenied, []string{"permission denied", "eacces", "access denied"}},
	{ErrNotFound, []string{"no such file", "does not exist", "not found", "enoent", "404", "nosuchkey", "nosuchbucket"}},
	{ErrDiskFull, []string{"no space left", "disk full", "enospc", "quota exceeded"}},
	{ErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrThrottled, []string{"slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"}},
	{ErrAuth, []string{"nocredentialproviders", "credentials", "invalidaccesskeyid", "signaturedoesnotmatch", "expiredtoken", "401", "unauthorized"}},
	{ErrNetwork, []string{"connection refused", "no route to host", "network unreachable", "dns", "dial tcp"}},
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, frag := range rule.fragments {
			if strings.Contains(msg, frag) {
				return rule.kind
			}
		}
	}
	return ErrUnclassified
}
