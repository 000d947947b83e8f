package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStackPushPopDiscipline(t *testing.T) {
	s := NewEnvStack("alice", "box")
	assert.Equal(t, 1, s.Depth())
	assert.ErrorIs(t, s.Pop(), ErrEmptyEnvStack)

	s.Push("root", "box")
	assert.Equal(t, 2, s.Depth())
	home, _ := s.Get("HOME")
	assert.Equal(t, "/home/root", home)

	require.NoError(t, s.Pop())
	assert.Equal(t, 1, s.Depth())
	home, _ = s.Get("HOME")
	assert.Equal(t, "/home/alice", home)
}

func TestHistorySuppressesAdjacentDuplicatesAndBounds(t *testing.T) {
	h := NewHistory()
	h.Add("ls")
	h.Add("ls")
	h.Add("pwd")
	assert.Equal(t, []string{"ls", "pwd"}, h.All())

	for i := 0; i < 60; i++ {
		h.Add("cmd")
		h.Add("other")
	}
	assert.LessOrEqual(t, len(h.All()), historyCap)
}

func TestJobTableMessageQueueRoundTrip(t *testing.T) {
	jobs := NewJobTable()
	job := jobs.Spawn("sleep 10", "alice")
	require.NoError(t, jobs.PostMessage(job.PID, "hello"))
	require.NoError(t, jobs.PostMessage(job.PID, "world"))

	msgs, err := jobs.ReadMessages(job.PID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, msgs)

	drained, err := jobs.ReadMessages(job.PID)
	require.NoError(t, err)
	assert.Empty(t, drained)
}

func TestSessionSerializeRoundTrip(t *testing.T) {
	sess := New("alice", "box", 0)
	sess.Aliases.Set("gs", "git status")
	sess.History.Add("ls -la")

	blob := sess.SaveStateToJSON()

	restored := New("alice", "box", 0)
	require.NoError(t, restored.LoadStateFromJSON([]byte(blob)))

	expansion, ok := restored.Aliases.Resolve("gs")
	assert.True(t, ok)
	assert.Equal(t, "git status", expansion)
	assert.Equal(t, []string{"ls -la"}, restored.History.All())
}

func TestSessionLoadStateCorruptRestoresEmpties(t *testing.T) {
	sess := New("alice", "box", 0)
	sess.History.Add("something")

	err := sess.LoadStateFromJSON([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, sess.History.All())
}
