package commands

import (
	"testing"

	"github.com/aedmark/shellos/pkg/config"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSystem boots a fresh System with a root account already in place
// (via FirstTimeSetup), matching the convention the rest of this tree uses
// for root_required commands needing a real root identity to dispatch as.
func newTestSystem(t *testing.T) *System {
	t.Helper()
	fs := vfs.New(nil)
	sys := NewSystem(fs, config.CoreConfig{MaxVFSSize: 1 << 20}, "testhost", 0)
	require.NoError(t, sys.Identity.FirstTimeSetup("alice", "alicepw", "rootpw"))
	return sys
}

func shellAs(sys *System, username string) *shell.Shell {
	actor := sys.ActorFor(username)
	sess := sys.NewSession(username, 0)
	return sys.Shell(sess, actor)
}

func TestUseraddCreatesAccountAndHome(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "root")

	result := sh.Execute("useradd bob -p secret")
	require.True(t, result.Success)
	assert.True(t, sys.Identity.Users.UserExists("bob"))

	node, err := sys.FS.GetNode("/home/bob", true)
	require.NoError(t, err)
	assert.Equal(t, "bob", node.Owner)
}

func TestUseraddRejectsNonRoot(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")

	result := sh.Execute("useradd bob")
	assert.False(t, result.Success)
	assert.False(t, sys.Identity.Users.UserExists("bob"))
}

func TestSudoDeniesCommandNotInSudoers(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")

	result := sh.Execute("sudo useradd carol")
	assert.False(t, result.Success)
	assert.False(t, sys.Identity.Users.UserExists("carol"))
}

func TestCatReadsFileContent(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")
	require.NoError(t, sys.FS.WriteFile("/home/alice/greeting.txt", []byte("hello\nworld\n"), sys.ActorFor("alice")))

	result := sh.Execute("cat /home/alice/greeting.txt")
	require.True(t, result.Success)
	assert.Equal(t, "hello\nworld", result.Output)
}

func TestGrepFiltersMatchingLines(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")
	require.NoError(t, sys.FS.WriteFile("/home/alice/log.txt", []byte("alpha\nbeta\nalphabet\n"), sys.ActorFor("alice")))

	result := sh.Execute("grep alpha /home/alice/log.txt")
	require.True(t, result.Success)
	assert.Equal(t, "alpha\nalphabet", result.Output)
}

func TestCdEmitsChangeDirectoryEffect(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")

	result := sh.Execute("cd /")
	require.True(t, result.Success)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, "/", result.Effects[0].Payload["path"])
}

func TestRmInteractiveEmitsConfirmUnlessConfirmed(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")
	require.NoError(t, sys.FS.WriteFile("/home/alice/stuff.txt", []byte("x"), sys.ActorFor("alice")))

	result := sh.Execute("rm -i /home/alice/stuff.txt")
	require.True(t, result.Success)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, "confirm", string(result.Effects[0].Kind))

	confirmCmd, ok := result.Effects[0].Payload["on_confirm_command"].(string)
	require.True(t, ok)
	confirmed := sh.Execute(confirmCmd)
	assert.True(t, confirmed.Success)

	_, err := sys.FS.GetNode("/home/alice/stuff.txt", true)
	assert.Error(t, err)
}

func TestRmRecursiveRemovesDirectoryImmediately(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")
	require.NoError(t, sys.FS.CreateDirectory("/home/alice/stuff", sys.ActorFor("alice")))

	result := sh.Execute("rm -r /home/alice/stuff")
	require.True(t, result.Success)

	_, err := sys.FS.GetNode("/home/alice/stuff", true)
	assert.Error(t, err)
}

func TestRestoreRoundTripsBackup(t *testing.T) {
	sys := newTestSystem(t)
	root := shellAs(sys, "root")

	backupResult := root.Execute("backup")
	require.True(t, backupResult.Success)
	require.Len(t, backupResult.Effects, 1)
	content, ok := backupResult.Effects[0].Payload["content"].(string)
	require.True(t, ok)

	require.NoError(t, sys.FS.WriteFile("/home/root/backup.json", []byte(content), sys.ActorFor("root")))

	result := root.Execute("restore /home/root/backup.json")
	require.True(t, result.Success)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, "confirm", string(result.Effects[0].Kind))

	confirmCmd, ok := result.Effects[0].Payload["on_confirm_command"].(string)
	require.True(t, ok)
	confirmed := root.Execute(confirmCmd)
	assert.True(t, confirmed.Success)
}

func TestHelpListsRegisteredCommands(t *testing.T) {
	sys := newTestSystem(t)
	sh := shellAs(sys, "alice")

	result := sh.Execute("help")
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "useradd")
	assert.Contains(t, result.Output, "cat")
}
