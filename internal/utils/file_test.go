package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(small, []byte("Jane Doe\nGo engineer"), 0600))
	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", 2048)), 0600))

	tests := []struct {
		name    string
		file    string
		maxSize int64
		wantErr string
	}{
		{name: "readable file", file: small, maxSize: 1024},
		{name: "no limit", file: big},
		{name: "empty name", file: "", wantErr: "cannot be empty"},
		{name: "missing", file: filepath.Join(dir, "nope.txt"), wantErr: "does not exist"},
		{name: "directory", file: dir, wantErr: "is a directory"},
		{name: "too large", file: big, maxSize: 1024, wantErr: "is 2.0 KB, limit is 1.0 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.file, tt.maxSize)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileKinds(t *testing.T) {
	assert.True(t, IsTextFile("resume.MD"))
	assert.True(t, IsTextFile("posting.html"))
	assert.False(t, IsTextFile("resume.pdf"))

	assert.True(t, IsStructuredFile("keywords.yml"))
	assert.True(t, IsStructuredFile("keywords.JSON"))
	assert.False(t, IsStructuredFile("keywords.txt"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "1.0 MB", FormatFileSize(1<<20))
}

func TestValidateOutputFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ValidateOutputFile(""))
	assert.NoError(t, ValidateOutputFile(filepath.Join(dir, "new", "report.md")))
	assert.ErrorContains(t, ValidateOutputFile(dir), "is a directory")
}
