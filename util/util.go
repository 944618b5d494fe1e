package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// HasPrefixes returns true if the string s has any of the given prefixes.
func HasPrefixes(src string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFilename slugs the base name of an upload so it is safe to place
// under the originals directory and to echo back in a Content-Disposition
// header. The extension is preserved, lowercased. An empty result falls back
// to a random name.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	safe := unsafeChars.ReplaceAllString(strings.ToLower(stem), "-")
	safe = strings.Trim(safe, "-")
	if safe == "" {
		safe = "upload-" + uuid.New().String()[:8]
	}
	return safe + ext
}

// UniqueName returns a file name that does not yet exist inside dir, probing
// name, name-1, name-2 and so on.
func UniqueName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}
