//go:build windows

package fsutil

import (
	"errors"
	"syscall"
)

// ErrCrossDevice marks a rename that failed because source and
// destination live on different filesystems.
var ErrCrossDevice = errors.New("cross-device rename")

// errorNotSameDevice is ERROR_NOT_SAME_DEVICE (17) as reported by MoveFile.
const errorNotSameDevice = syscall.Errno(17)

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice)
}

// SameDevice always reports true on Windows; distinguishing volumes
// precisely needs a GetVolumeInformation call this package doesn't make,
// and PromoteDir's copy fallback is safe to take unconditionally when
// the rename itself reports ERROR_NOT_SAME_DEVICE.
func SameDevice(a, b string) (bool, error) {
	return true, nil
}
