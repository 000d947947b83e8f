package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	r := NewRouter()
	r.Register("filesystem", "getNode", func(req Request) Response {
		return Ok(map[string]any{"path": req.Args[0]})
	})

	resp := r.Dispatch(Request{Module: "filesystem", Function: "getNode", Args: []any{"/etc"}})
	assert.True(t, resp.Success)
	assert.Equal(t, "/etc", resp.Data.(map[string]any)["path"])
}

func TestDispatchUnknownSyscallReturnsError(t *testing.T) {
	r := NewRouter()
	resp := r.Dispatch(Request{Module: "ghost", Function: "nope"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no such syscall")
}

func TestDispatchRecoversPanicAsInternalError(t *testing.T) {
	r := NewRouter()
	r.Register("basic", "boom", func(req Request) Response {
		panic("kaboom")
	})
	resp := r.Dispatch(Request{Module: "basic", Function: "boom"})
	assert.False(t, resp.Success)
	assert.Equal(t, "internal error", resp.Error)
	assert.Contains(t, resp.Traceback, "kaboom")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRouter()
	r.Register("log", "append", func(req Request) Response { return Ok(nil) })
	assert.Panics(t, func() {
		r.Register("log", "append", func(req Request) Response { return Ok(nil) })
	})
}

func TestBackupChecksumRoundTrip(t *testing.T) {
	snapshot := json.RawMessage(`{"/":{"type":"directory"}}`)
	b, err := NewBackup("5.0", "2026-01-01T00:00:00Z", snapshot, json.RawMessage(`{}`), json.RawMessage(`{}`), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, b.Verify())

	b.OSVersion = "tampered"
	assert.False(t, b.Verify())
}
