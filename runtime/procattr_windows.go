//go:build windows

package runtime

import "os/exec"

// setProcessGroup is a no-op on Windows; cancellation kills the direct
// child only and WaitDelay bounds the pipe drain.
func setProcessGroup(_ *exec.Cmd) {}
