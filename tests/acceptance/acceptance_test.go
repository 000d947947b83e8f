// Package acceptance exercises the end-to-end scenarios spec.md §8 seeds
// the test suite with: whole-line execution through pkg/shell's executor
// against a live pkg/commands.System, not individual command units (those
// live beside their implementations). Grounded on the teacher's
// tests/acceptance package split (its own acceptance suite drives a real
// sandbox end-to-end rather than unit-testing individual RPC handlers);
// here the "real sandbox" is an in-process System, so no build tag or
// external binary is required the way the teacher's VM-backed suite needs
// MATCHLOCK_BIN.
package acceptance

import (
	"strings"
	"testing"

	"github.com/aedmark/shellos/pkg/commands"
	"github.com/aedmark/shellos/pkg/config"
	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSystem boots a fresh System with a root+alice account already
// onboarded, matching the convention pkg/commands' own tests use.
func newSystem(t *testing.T) *commands.System {
	t.Helper()
	fs := vfs.New(nil)
	sys := commands.NewSystem(fs, config.CoreConfig{MaxVFSSize: 1 << 20}, "shellos-test", 0)
	require.NoError(t, sys.Identity.FirstTimeSetup("alice", "alicepw", "rootpw"))
	return sys
}

func shellAs(sys *commands.System, username string) *shell.Shell {
	actor := sys.ActorFor(username)
	sess := sys.NewSession(username, 0)
	return sys.Shell(sess, actor)
}

// cd applies the change_directory effect cd's command emits, mirroring the
// host bridge's own runLoop (the shell layer only ever reports the
// destination path, never touches Session.CurrentPath itself).
func cd(t *testing.T, sh *shell.Shell, path string) {
	t.Helper()
	result := sh.Execute("cd " + path)
	require.True(t, result.Success)
	require.Len(t, result.Effects, 1)
	dest, ok := result.Effects[0].Payload["path"].(string)
	require.True(t, ok)
	sh.Session.CurrentPath = dest
	sh.FS.SetCurrentPath(dest)
}

// TestPipelinedTextProcessing covers spec.md §8 scenario 1.
func TestPipelinedTextProcessing(t *testing.T) {
	sys := newSystem(t)
	sh := shellAs(sys, "alice")

	require.NoError(t, sys.FS.WriteFile("/home/alice/f.txt", []byte("b\na\nc\nb\n"), sys.ActorFor("alice")))

	result := sh.Execute("cat /home/alice/f.txt | sort | uniq -c")
	require.True(t, result.Success)
	assert.Equal(t, "      1 a\n      2 b\n      1 c", result.Output)
}

// TestBraceGlobRedirect covers spec.md §8 scenario 2.
func TestBraceGlobRedirect(t *testing.T) {
	sys := newSystem(t)
	sh := shellAs(sys, "alice")
	cd(t, sh, "/home/alice")

	result := sh.Execute(`touch {a,b,c}.txt ; ls *.txt > list.txt ; cat list.txt`)
	require.True(t, result.Success)
	assert.Equal(t, "a.txt\nb.txt\nc.txt", result.Output)

	content, err := sys.FS.GetNode("/home/alice/list.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\nc.txt", strings.TrimRight(string(content.Content), "\n"))
}

// TestSudoAudit covers spec.md §8 scenario 3: a non-root user listed in
// sudoers runs a command as root, and the attempt is audited.
func TestSudoAudit(t *testing.T) {
	sys := newSystem(t)

	sudoersActor := sys.ActorFor("root")
	require.NoError(t, sys.FS.WriteFile("/etc/sudoers", []byte("Guest ALL\n"), sudoersActor))

	sh := shellAs(sys, "Guest")
	result := sh.Execute("sudo whoami")
	require.True(t, result.Success)
	require.Len(t, result.Effects, 1)
	assert.Equal(t, effect.KindSudoExec, result.Effects[0].Kind)
	cmdStr, ok := result.Effects[0].Payload["command"].(string)
	require.True(t, ok)
	assert.Equal(t, "whoami", cmdStr)

	// The host would prompt for Guest's password, verify it, then
	// re-dispatch cmdStr under a root actor; reproduce that re-entry here
	// without an interactive terminal.
	elevated := &shell.Shell{FS: sh.FS, Session: sh.Session, Actor: sys.ActorFor("root"), Dispatch: sh.Dispatch}
	elevatedResult := elevated.Execute(cmdStr)
	require.True(t, elevatedResult.Success)
	assert.Equal(t, "root", elevatedResult.Output)

	auditContent, err := sys.FS.GetNode("/var/log/audit.log", true)
	require.NoError(t, err)
	assert.Contains(t, string(auditContent.Content), "USER: Guest | ACTION: SUDO_ATTEMPT | DETAILS: Command: whoami")
}

// TestWardedPermission covers spec.md §8 scenario 4: a scheduled chmod job
// in /etc/agenda.json converts a plain permission denial into the "magical
// ward" message.
func TestWardedPermission(t *testing.T) {
	sys := newSystem(t)
	rootActor := sys.ActorFor("root")

	require.NoError(t, sys.FS.WriteFile("/a", []byte(""), rootActor))
	require.NoError(t, sys.FS.Chmod("/a", 0o400, rootActor))
	require.NoError(t, sys.FS.WriteFile(
		"/etc/agenda.json",
		[]byte(`[{"id":"job1","cronString":"* * * * *","command":"chmod 755 /a"}]`),
		rootActor,
	))

	sh := shellAs(sys, "Guest")
	result := sh.Execute("echo x > /a")
	assert.False(t, result.Success)
	require.NotNil(t, result.Err)
	assert.Equal(t, "Cannot modify 'a': it is protected by a magical ward.", result.Err.Message)
}

// TestStorySnapshotAndRewind covers spec.md §8 scenario 5.
func TestStorySnapshotAndRewind(t *testing.T) {
	sys := newSystem(t)
	sh := shellAs(sys, "alice")
	require.True(t, sh.Execute("mkdir /home/alice/p").Success)
	cd(t, sh, "/home/alice/p")

	require.True(t, sh.Execute("story begin").Success)
	require.True(t, sh.Execute("echo v1 > f").Success)
	saveV1 := sh.Execute(`story save "v1"`)
	require.True(t, saveV1.Success)
	v1ID := strings.TrimPrefix(saveV1.Output, "saved chapter ")

	require.True(t, sh.Execute("echo v2 > f").Success)
	saveV2 := sh.Execute(`story save "v2"`)
	require.True(t, saveV2.Success)

	logResult := sh.Execute("story log")
	require.True(t, logResult.Success)
	lines := strings.Split(logResult.Output, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "v2")
	assert.Contains(t, lines[1], "v1")

	rewind := sh.Execute("story rewind " + v1ID)
	require.True(t, rewind.Success)
	require.Len(t, rewind.Effects, 1)
	assert.Equal(t, effect.KindConfirm, rewind.Effects[0].Kind)
	confirmCmd, ok := rewind.Effects[0].Payload["on_confirm_command"].(string)
	require.True(t, ok)

	confirmed := sh.Execute(confirmCmd)
	require.True(t, confirmed.Success)

	node, err := sys.FS.GetNode("/home/alice/p/f", true)
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(node.Content))

	logAfter := sh.Execute("story log")
	require.True(t, logAfter.Success)
	assert.Len(t, strings.Split(logAfter.Output, "\n"), 2)
}

// TestBackgroundJobSignals covers spec.md §8 scenario 6: backgrounding,
// STOP/CONT signalling, and kill removing the job from the table.
func TestBackgroundJobSignals(t *testing.T) {
	sys := newSystem(t)
	sh := shellAs(sys, "alice")

	bgResult := sh.Execute("sleep 100 &")
	require.True(t, bgResult.Success)
	require.Len(t, bgResult.Effects, 1)
	assert.Equal(t, effect.KindBackgroundJob, bgResult.Effects[0].Kind)

	jobsResult := sh.Execute("jobs")
	require.True(t, jobsResult.Success)
	require.Len(t, sh.Session.Jobs.All(), 1)
	assert.Contains(t, jobsResult.Output, "running")

	stopResult := sh.Execute("kill -STOP %1")
	require.True(t, stopResult.Success)
	job, found := sh.Session.Jobs.Get(1)
	require.True(t, found)
	assert.EqualValues(t, "stopped", job.State)

	bgResume := sh.Execute("bg %1")
	require.True(t, bgResume.Success)
	job, found = sh.Session.Jobs.Get(1)
	require.True(t, found)
	assert.EqualValues(t, "running", job.State)

	killResult := sh.Execute("kill %1")
	require.True(t, killResult.Success)
	_, found = sh.Session.Jobs.Get(1)
	assert.False(t, found)
}
