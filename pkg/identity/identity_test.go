package identity

import (
	"testing"

	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsernameRejectsReservedAndMalformed(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername("root"), ErrReservedUsername)
	assert.ErrorIs(t, ValidateUsername("ROOT"), ErrReservedUsername)
	assert.ErrorIs(t, ValidateUsername("ab"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("has space"), ErrInvalidUsername)
	assert.NoError(t, ValidateUsername("alice"))
}

func TestVerifyPasswordNoPasswordRequiresEmptyAttempt(t *testing.T) {
	m := NewUserManager()
	require.NoError(t, m.RegisterUser("alice", "", "alice"))
	assert.True(t, m.VerifyPassword("alice", ""))
	assert.False(t, m.VerifyPassword("alice", "anything"))
}

func TestVerifyPasswordRoundTrip(t *testing.T) {
	m := NewUserManager()
	require.NoError(t, m.RegisterUser("alice", "hunter2", "alice"))
	assert.True(t, m.VerifyPassword("alice", "hunter2"))
	assert.False(t, m.VerifyPassword("alice", "wrong"))
	assert.False(t, m.VerifyPassword("alice", ""))
}

func TestRootCannotDropPassword(t *testing.T) {
	m := NewUserManager()
	require.NoError(t, m.RegisterUser("root", "initial", "root"))
	err := m.SetPassword("root", "")
	assert.ErrorIs(t, err, ErrRootNeedsPassword)
}

func TestGroupManagerRemoveUserFromAllGroupsIsIdempotent(t *testing.T) {
	g := NewGroupManager()
	require.NoError(t, g.CreateGroup("a"))
	require.NoError(t, g.CreateGroup("b"))
	require.NoError(t, g.AddUserToGroup("alice", "a"))
	require.NoError(t, g.AddUserToGroup("alice", "b"))

	g.RemoveUserFromAllGroups("alice")
	assert.Empty(t, g.GroupsForUser("alice"))
	g.RemoveUserFromAllGroups("alice")
	assert.Empty(t, g.GroupsForUser("alice"))
}

func TestSudoersAllParsing(t *testing.T) {
	fs := vfs.New(nil)
	root := vfs.Actor{Name: "root", Groups: []string{"root"}}
	require.NoError(t, fs.WriteFile("/etc/sudoers", []byte("guest ALL\n%editors cat,ls\n"), root))
	require.NoError(t, fs.Chmod("/etc/sudoers", 0o440, root))

	sudo := NewSudoManager(fs)
	assert.True(t, sudo.CanUserRunCommand("guest", nil, "whoami"))
	assert.True(t, sudo.CanUserRunCommand("root", nil, "anything"))
	assert.False(t, sudo.CanUserRunCommand("nobody", nil, "whoami"))
	assert.True(t, sudo.CanUserRunCommand("nobody", []string{"editors"}, "cat"))
	assert.False(t, sudo.CanUserRunCommand("nobody", []string{"editors"}, "rm"))
}

func TestFirstTimeSetupCreatesHomeAndRollsBackOnFailure(t *testing.T) {
	fs := vfs.New(nil)
	sys := NewSystem(fs)

	require.NoError(t, sys.FirstTimeSetup("alice", "pw", "rootpw"))
	assert.True(t, sys.Users.UserExists("root"))
	assert.True(t, sys.Users.UserExists("Guest"))
	assert.True(t, sys.Users.UserExists("alice"))

	node, err := fs.GetNode("/home/alice", true)
	require.NoError(t, err)
	assert.Equal(t, "alice", node.Owner)
	assert.Equal(t, "alice", node.Group)

	err = sys.FirstTimeSetup("bad name", "pw", "")
	assert.Error(t, err)
	assert.True(t, sys.Users.UserExists("alice"), "rollback must preserve prior users")
}
