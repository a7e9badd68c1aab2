package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoOutput means a converter finished but its output is absent or empty
var ErrNoOutput = errors.New("output file missing or empty")

// ErrUnreadableOutput means a converter left a file that does not parse as a PDF with pages
var ErrUnreadableOutput = errors.New("output is not a readable PDF")

// BaseName returns the file name of path without its extension
func BaseName(path string) string {
	name := filepath.Base(path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		// dotfiles like ".env" have no stem
		return name
	}
	return base
}

// Sibling returns the path next to input with the same base name and extension ext
func Sibling(input, ext string) string {
	return filepath.Join(filepath.Dir(input), BaseName(input)+ext)
}

// verifyOutput checks that path is a regular file with content
func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoOutput, path)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrNoOutput, path)
	}
	return nil
}

// firstUsable returns the first candidate that verifies
func firstUsable(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if verifyOutput(c) == nil {
			return c, true
		}
	}
	return "", false
}
