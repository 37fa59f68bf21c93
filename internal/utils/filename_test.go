package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps simple names",
			input:    "cover.png",
			expected: "cover.png",
		},
		{
			name:     "replaces whitespace with hyphens",
			input:    "my  book\tcover.jpg",
			expected: "my-book-cover.jpg",
		},
		{
			name:     "strips directories",
			input:    "../../etc/passwd",
			expected: "passwd",
		},
		{
			name:     "strips windows directories",
			input:    `C:\Users\me\cover.jpeg`,
			expected: "cover.jpeg",
		},
		{
			name:     "drops unsafe characters",
			input:    `co<v>e"r?*.png`,
			expected: "cover.png",
		},
		{
			name:     "drops leading dots",
			input:    ".hidden.png",
			expected: "hidden.png",
		},
		{
			name:     "returns upload for empty",
			input:    "",
			expected: "upload",
		},
		{
			name:     "returns upload for only special chars",
			input:    "<>:?*",
			expected: "upload",
		},
		{
			name:     "non-ascii removed",
			input:    "обложка.png",
			expected: "png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesKeepingExtension(t *testing.T) {
	result := SanitizeFilename(strings.Repeat("a", 250) + ".jpeg")

	assert.Len(t, result, MaxFilenameLength)
	assert.True(t, strings.HasSuffix(result, ".jpeg"))
}
