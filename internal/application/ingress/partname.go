package ingress

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// sanitizePartName normalizes a client-supplied filename to NFC (so two
// byte-distinct but canonically equal Unicode filenames never collide
// or diverge on different filesystems) and rejects any path component
// that would let the name escape stagingDir.
func sanitizePartName(name string) (string, error) {
	clean := norm.NFC.String(name)
	base := filepath.Base(clean)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("invalid part filename %q", name)
	}
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) || base != clean {
		return "", fmt.Errorf("part filename %q must not contain path separators", name)
	}
	return base, nil
}
