package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/uploads/")
	require.NoError(t, err)

	body := "hello"
	att, err := up.Upload(context.Background(), strings.NewReader(body), "plan.pdf", int64(len(body)), "aip-documents")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(att.URL, "/uploads/aip-documents/"), "got %s", att.URL)
	assert.Equal(t, "pdf", att.Format)
	assert.Equal(t, int64(len(body)), att.Size)
	assert.Equal(t, "plan.pdf", att.OriginalName)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(att.PublicID)))
	require.NoError(t, err)
	assert.Equal(t, body, string(stored))
}

func TestUploadRejectsOversized(t *testing.T) {
	up, err := NewLocalUploader(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = up.Upload(context.Background(), strings.NewReader("x"), "big.pdf", MaxUploadSize+1, "aip-documents")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadRejectsUnderstatedSize(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/uploads")
	require.NoError(t, err)

	// Caller claims a small size but streams more than the limit.
	big := strings.NewReader(strings.Repeat("a", MaxUploadSize+10))
	_, err = up.Upload(context.Background(), big, "sneaky.pdf", 100, "aip-documents")
	require.ErrorIs(t, err, ErrFileTooLarge)

	// Nothing may be left on disk after the rejection.
	entries, readErr := os.ReadDir(filepath.Join(dir, "aip-documents"))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	up, err := NewLocalUploader(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = up.Upload(context.Background(), strings.NewReader("#!/bin/sh"), "script.sh", 9, "aip-documents")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
