package story

import (
	"testing"

	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actor() vfs.Actor { return vfs.Actor{Name: "root", Groups: []string{"root"}} }

func TestBeginSaveLogRewind(t *testing.T) {
	fs := vfs.New(nil)
	require.NoError(t, fs.CreateDirectory("/project", actor()))
	require.NoError(t, fs.WriteFile("/project/a.txt", []byte("v1"), actor()))

	m := NewManager(fs)
	require.NoError(t, m.Begin("/project", actor()))

	err := m.Begin("/project", actor())
	assert.ErrorIs(t, err, ErrAlreadyBegun)

	id, err := m.Save("/project", "first chapter", actor())
	require.NoError(t, err)
	assert.Len(t, id, 10)

	require.NoError(t, fs.WriteFile("/project/a.txt", []byte("v2"), actor()))

	entries, err := m.Log("/project")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first chapter", entries[0].Message)

	require.NoError(t, m.Rewind("/project", id, actor()))
	node, err := fs.GetNode("/project/a.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), node.Content)
}

func TestSaveOutsideRepoFails(t *testing.T) {
	fs := vfs.New(nil)
	require.NoError(t, fs.CreateDirectory("/solo", actor()))
	m := NewManager(fs)

	_, err := m.Save("/solo", "msg", actor())
	assert.ErrorIs(t, err, ErrNotAStoryRepo)
}

func TestTrackedFilesSkipHiddenAndStoryDir(t *testing.T) {
	fs := vfs.New(nil)
	require.NoError(t, fs.CreateDirectory("/p", actor()))
	require.NoError(t, fs.WriteFile("/p/visible.txt", []byte("x"), actor()))
	require.NoError(t, fs.CreateDirectory("/p/.hidden", actor()))
	require.NoError(t, fs.WriteFile("/p/.hidden/secret.txt", []byte("x"), actor()))

	m := NewManager(fs)
	require.NoError(t, m.Begin("/p", actor()))
	tracked := m.trackedFiles("/p")
	assert.Equal(t, []string{"/p/visible.txt"}, tracked)
}
