package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
)

func withPageSize(t *testing.T, n int) {
	t.Helper()
	SetPageSize(n)
	t.Cleanup(ResetPageSize)
}

func newBaseFile(t *testing.T) (*BaseFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.dat")
	bf, err := NewBaseFile(primitives.Filepath(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bf.Close() })
	return bf, path
}

func TestPageSizeControls(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Size())
	SetPageSize(64)
	assert.Equal(t, 64, Size())
	ResetPageSize()
	assert.Equal(t, DefaultPageSize, Size())
	assert.Panics(t, func() { SetPageSize(0) })
}

func TestNewBaseFile(t *testing.T) {
	_, err := NewBaseFile("")
	assert.Error(t, err)

	bf, path := newBaseFile(t)
	assert.Equal(t, primitives.Filepath(path).Hash(), bf.GetID())
	assert.Equal(t, primitives.Filepath(path), bf.FilePath())

	n, err := bf.NumPages()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBaseFile_AllocateAndWrite(t *testing.T) {
	withPageSize(t, 32)
	bf, path := newBaseFile(t)

	for want := primitives.PageNumber(0); want < 3; want++ {
		got, err := bf.AllocateNewPage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	n, err := bf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(3), n)

	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, bf.WritePageData(1, data))

	got, err := bf.ReadPageData(1)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(96), info.Size(), "write must not truncate")

	assert.Error(t, bf.WritePageData(0, make([]byte, 10)))
}

func TestBaseFile_ShortLastPage(t *testing.T) {
	withPageSize(t, 16)
	bf, path := newBaseFile(t)

	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}, 0o644))

	n, err := bf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(2), n)

	tail, err := bf.ReadPageData(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{17, 18}, tail)

	_, err = bf.ReadPageData(2)
	assert.ErrorIs(t, err, dberror.ErrAddressing)
}

func TestBaseFile_Closed(t *testing.T) {
	bf, _ := newBaseFile(t)
	require.NoError(t, bf.Close())
	require.NoError(t, bf.Close())

	_, err := bf.NumPages()
	assert.Error(t, err)
	_, err = bf.ReadPageData(0)
	assert.Error(t, err)
	_, err = bf.AllocateNewPage()
	assert.Error(t, err)
	assert.Error(t, bf.WritePageData(0, make([]byte, Size())))
}

func TestPermissionsString(t *testing.T) {
	assert.Equal(t, "READ_ONLY", ReadOnly.String())
	assert.Equal(t, "READ_WRITE", ReadWrite.String())
}
