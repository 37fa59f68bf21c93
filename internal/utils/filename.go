package utils

import (
	"path"
	"regexp"
	"strings"
)

var (
	// Runs of whitespace become a single hyphen
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// Anything outside this set is dropped from stored file names
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// MaxFilenameLength bounds sanitized names, extension included.
const MaxFilenameLength = 100

// SanitizeFilename turns a client-supplied upload name into a safe base
// name: directory components are stripped, whitespace becomes hyphens and
// only ASCII letters, digits, dots, hyphens and underscores survive. The
// extension is kept when the name has to be shortened.
func SanitizeFilename(filename string) string {
	// Clients may send Windows paths
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))

	filename = whitespaceRuns.ReplaceAllString(strings.TrimSpace(filename), "-")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")

	// No hidden files and no "." or ".."
	filename = strings.TrimLeft(filename, ".")

	if len(filename) > MaxFilenameLength {
		ext := path.Ext(filename)
		if len(ext) > 10 {
			ext = ""
		}
		filename = filename[:MaxFilenameLength-len(ext)] + ext
	}

	if filename == "" {
		filename = "upload"
	}

	return filename
}
