package axistransport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeReadIntParsesTrailingInteger(t *testing.T) {
	port := NewTestablePort()
	port.QueueLine("=mpos 4096")
	n := newNode(port)
	defer n.close()

	v, err := n.readInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 4096, v)
	assert.Contains(t, port.Written(), "=mpos\n")
}

func TestNodeWriteAppendsNewline(t *testing.T) {
	port := NewTestablePort()
	n := newNode(port)
	defer n.close()

	require.NoError(t, n.write("mtpos=100"))
	assert.Equal(t, "mtpos=100\n", port.Written())
}

func TestNodeWriteFailsOnPortWriteError(t *testing.T) {
	port := NewTestablePort()
	port.WriteError = ErrWriteFailed
	n := newNode(port)
	defer n.close()

	err := n.write("mtpos=1")
	assert.Error(t, err)
}

func TestNodeReadNonBlockingDrainsBufferedLines(t *testing.T) {
	port := NewTestablePort()
	port.QueueLine("config line one")
	port.QueueLine("config line two")
	n := newNode(port)
	defer n.close()

	// give the background scanner a moment to pick up both queued lines
	require.Eventually(t, func() bool {
		b, _ := n.readNonBlocking()
		return len(b) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestNodeCloseIsIdempotent(t *testing.T) {
	port := NewTestablePort()
	n := newNode(port)
	assert.NoError(t, n.close())
	assert.NoError(t, n.close())
}
