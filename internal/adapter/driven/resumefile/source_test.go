package resumefile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/profilekeeper/internal/adapter/driven/resumefile"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "resume.pdf", []byte("%PDF-1.7"))

	artifact, err := resumefile.New(path, "").Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "resume.pdf", artifact.FileName)
	assert.Equal(t, []byte("%PDF-1.7"), artifact.Content)
}

func TestLoad_FileNameOverride(t *testing.T) {
	path := writeFile(t, "resume.pdf", []byte("%PDF-1.7"))

	artifact, err := resumefile.New(path, "Jane_Doe.pdf").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jane_Doe.pdf", artifact.FileName)
}

func TestLoad_RereadsOnEveryCall(t *testing.T) {
	path := writeFile(t, "resume.pdf", []byte("v1"))
	source := resumefile.New(path, "")

	_, err := source.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	artifact, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), artifact.Content)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.pdf") }},
		{name: "empty", path: func(t *testing.T) string { return writeFile(t, "empty.pdf", nil) }},
		{name: "directory", path: func(t *testing.T) string { return t.TempDir() }},
		{name: "too large", path: func(t *testing.T) string { return writeFile(t, "big.pdf", make([]byte, 3<<20)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resumefile.New(tt.path(t), "").Load(context.Background())
			assert.Error(t, err)
		})
	}
}
