//go:build !windows

package fsutil

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrCrossDevice marks a rename that failed because source and
// destination live on different filesystems (EXDEV).
var ErrCrossDevice = errors.New("cross-device rename")

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// SameDevice reports whether the two paths reside on the same
// filesystem, by comparing the device number in each path's stat info.
func SameDevice(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("same device: stat %s: %w", a, err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("same device: stat %s: %w", b, err)
	}
	statA, ok := infoA.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("same device: unsupported stat_t for %s", a)
	}
	statB, ok := infoB.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("same device: unsupported stat_t for %s", b)
	}
	return statA.Dev == statB.Dev, nil
}
