package ingress

import "testing"

func TestSanitizePartName(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain filename", "upload.zip", false},
		{"chunked suffix", "pkg.3", false},
		{"path traversal", "../../etc/passwd", true},
		{"absolute path", "/etc/passwd", true},
		{"embedded separator", "sub/dir.zip", true},
		{"empty", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sanitizePartName(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q, got none", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
		})
	}
}
