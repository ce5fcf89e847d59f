package signet

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var extPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// NormalizeExt strips any leading dots from ext and checks that what remains
// is a short run of letters, digits or underscores. An empty result is valid
// and means "no extension".
func NormalizeExt(ext string) (string, error) {
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return "", nil
	}
	if !extPattern.MatchString(ext) {
		return "", fmt.Errorf("invalid ext %q: %w", ext, ErrInvalidInput)
	}
	return ext, nil
}

// IsValidKey validates that a key is safe to map onto a filesystem path.
// It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//
// Remote stores accept arbitrary keys; only the local backend enforces this.
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' {
		return false
	}

	if strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "..") {
		return false
	}

	if strings.Contains(k, "//") {
		return false
	}

	if strings.ContainsAny(k, `\?#~`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if strings.HasPrefix(k, "./") || strings.Contains(k, "/./") || strings.HasSuffix(k, "/.") {
		return false
	}

	for _, r := range k {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
