package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku,drr\nHS-GEL-01,2\n"), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"sku", "drr"}, records[0])
	assert.Equal(t, []string{"HS-GEL-01", "2"}, records[1])
}

func TestReadFileRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"legacy.xls", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

		_, err := ReadFile(path)
		assert.ErrorContains(t, err, "unsupported file type", name)
	}
}

func TestParseDriveRef(t *testing.T) {
	tests := []struct {
		ref      string
		wantName string
		wantOK   bool
	}{
		{"drive:rates.csv", "rates.csv", true},
		{"drive://rates.csv", "rates.csv", true},
		{"drive:", "", false},
		{"https://docs.google.com/export?format=csv", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		name, ok := ParseDriveRef(tt.ref)
		assert.Equal(t, tt.wantOK, ok, tt.ref)
		assert.Equal(t, tt.wantName, name, tt.ref)
	}
}
