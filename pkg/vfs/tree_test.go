package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootActor() Actor  { return Actor{Name: "root", Groups: []string{"root"}} }
func guestActor() Actor { return Actor{Name: "Guest", Groups: []string{"Guest"}} }

func TestWriteFileCreatesWithDefaultOwnerAndMode(t *testing.T) {
	fs := New(nil)
	actor := guestActor()
	require.NoError(t, fs.WriteFile("/home/Guest/notes.txt", []byte("hi"), actor))

	node, err := fs.GetNode("/home/Guest/notes.txt", true)
	require.NoError(t, err)
	assert.Equal(t, KindFile, node.Kind)
	assert.Equal(t, "Guest", node.Owner)
	assert.Equal(t, uint16(0o644), node.Mode)
	assert.Equal(t, []byte("hi"), node.Content)
}

func TestWriteFileDeniedWithoutParentWrite(t *testing.T) {
	fs := New(nil)
	actor := guestActor()
	err := fs.WriteFile("/etc/newfile.txt", []byte("x"), actor)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCollaborativeDirectoryGrantsGroupOwnership(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.CreateDirectory("/home/Guest/shared", guestActor()))
	require.NoError(t, fs.Chgrp("/home/Guest/shared", "editors", rootActor()))
	require.NoError(t, fs.Chmod("/home/Guest/shared", 0o070, rootActor()))

	editor := Actor{Name: "other", Groups: []string{"editors"}}
	require.NoError(t, fs.WriteFile("/home/Guest/shared/doc.txt", []byte("v"), editor))

	node, err := fs.GetNode("/home/Guest/shared/doc.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "editors", node.Group)
	assert.Equal(t, uint16(0o660), node.Mode)
}

func TestSymlinkCycleDetected(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.Ln("/a", "/b", rootActor()))
	require.NoError(t, fs.Ln("/b", "/a", rootActor()))

	_, err := fs.GetNode("/a", true)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestSymlinkResolvesThroughIntermediateComponent(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.CreateDirectory("/real", rootActor()))
	require.NoError(t, fs.WriteFile("/real/f.txt", []byte("data"), rootActor()))
	require.NoError(t, fs.Ln("/link", "/real", rootActor()))

	node, err := fs.GetNode("/link/f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), node.Content)
}

func TestRemoveNonEmptyDirRequiresRecursive(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.CreateDirectory("/d", rootActor()))
	require.NoError(t, fs.WriteFile("/d/f.txt", []byte("x"), rootActor()))

	err := fs.Remove("/d", rootActor(), false)
	assert.ErrorIs(t, err, ErrNotEmpty)

	require.NoError(t, fs.Remove("/d", rootActor(), true))
	_, err = fs.GetNode("/d", true)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestRemoveRootRejected(t *testing.T) {
	fs := New(nil)
	assert.ErrorIs(t, fs.Remove("/", rootActor(), true), ErrRemoveRoot)
}

func TestChmodRequiresOwnership(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.WriteFile("/home/Guest/f.txt", []byte("x"), guestActor()))

	other := Actor{Name: "other", Groups: []string{"other"}}
	err := fs.Chmod("/home/Guest/f.txt", 0o777, other)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, fs.Chmod("/home/Guest/f.txt", 0o600, guestActor()))
	node, err := fs.GetNode("/home/Guest/f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, uint16(0o600), node.Mode)
}

func TestWardBlocksChmodOnScheduledPath(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.WriteFile("/home/Guest/locked.txt", []byte("x"), guestActor()))
	agenda := `[{"id":"1","cronString":"* * * * *","command":"chmod 000 /home/Guest/locked.txt"}]`
	require.NoError(t, fs.WriteFile("/etc/agenda.json", []byte(agenda), rootActor()))
	require.NoError(t, fs.Chmod("/home/Guest/locked.txt", 0o000, rootActor()))

	other := Actor{Name: "other", Groups: []string{"other"}}
	err := fs.Chmod("/home/Guest/locked.txt", 0o777, other)
	var wardErr *WardError
	assert.ErrorAs(t, err, &wardErr)
}

func TestRenameMovesIntoExistingDirectory(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.WriteFile("/home/Guest/f.txt", []byte("x"), guestActor()))
	require.NoError(t, fs.CreateDirectory("/home/Guest/dest", guestActor()))

	require.NoError(t, fs.RenameNode("/home/Guest/f.txt", "/home/Guest/dest", guestActor()))
	_, err := fs.GetNode("/home/Guest/dest/f.txt", true)
	assert.NoError(t, err)
}

func TestCalculateNodeSizeRecursesDirectories(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.CreateDirectory("/d", rootActor()))
	require.NoError(t, fs.WriteFile("/d/a.txt", []byte("1234"), rootActor()))
	require.NoError(t, fs.WriteFile("/d/b.txt", []byte("12"), rootActor()))

	size, err := fs.CalculateNodeSize("/d")
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)
}

func TestLoadStateRoundTrip(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.WriteFile("/home/Guest/f.txt", []byte("persisted"), guestActor()))
	snapshot := fs.SaveStateToJSON()

	restored := New(nil)
	require.NoError(t, restored.LoadStateFromJSON([]byte(snapshot)))

	node, err := restored.GetNode("/home/Guest/f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), node.Content)
}

func TestFsckRepairsOrphanOwnerAndMissingHome(t *testing.T) {
	fs := New(nil)
	require.NoError(t, fs.WriteFile("/home/Guest/f.txt", []byte("x"), guestActor()))
	node, _ := fs.GetNode("/home/Guest/f.txt", true)
	node.Owner = "ghost"

	known := func(name string) bool { return name == "root" || name == "Guest" }
	report := fs.Fsck(known, known, []string{"root", "Guest", "newuser"}, true)

	assert.True(t, report.Changed)
	assert.NotEmpty(t, report.Issues)

	fixed, err := fs.GetNode("/home/Guest/f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "root", fixed.Owner)

	_, err = fs.GetNode("/home/newuser", true)
	assert.NoError(t, err)
}
