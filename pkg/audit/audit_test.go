package audit

import (
	"strings"
	"testing"

	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAppendsLineAndCreatesPath(t *testing.T) {
	fs := vfs.New(nil)
	sink := NewLineSink(fs)

	require.NoError(t, sink.Log("guest", "SUDO_ATTEMPT", "Command: whoami"))
	node, err := fs.GetNode("/var/log/audit.log", true)
	require.NoError(t, err)
	assert.Contains(t, string(node.Content), "USER: guest | ACTION: SUDO_ATTEMPT | DETAILS: Command: whoami")

	require.NoError(t, sink.Log("guest", "SUDO_ATTEMPT", "Command: ls"))
	node, err = fs.GetNode("/var/log/audit.log", true)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(node.Content), "\n"), "\n")
	assert.Len(t, lines, 2)
}
