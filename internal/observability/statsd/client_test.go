package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUDPSink returns a listening UDP socket and a function that reads the next
// datagram with a deadline.
func newUDPSink(t *testing.T) (string, func() string) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		buf := make([]byte, 1024)
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		return string(buf[:n])
	}
	return conn.LocalAddr().String(), read
}

func TestClientCount(t *testing.T) {
	addr, read := newUDPSink(t)
	client, err := NewClient(Config{Enabled: true, Address: addr, Prefix: "trendit"})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.Count("job.transition", 1, map[string]string{"status": "completed"})
	assert.Equal(t, "trendit.job.transition:1|c|#status:completed", read())
}

func TestClientGaugeAndTiming(t *testing.T) {
	addr, read := newUDPSink(t)
	client, err := NewClient(Config{Enabled: true, Address: addr})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.Gauge("queue.depth", 12.5, nil)
	assert.Equal(t, "queue.depth:12.5|g", read())

	client.Timing("job.duration", 1500*time.Millisecond, nil)
	assert.Equal(t, "job.duration:1500|ms", read())
}

func TestClientMergesAndSortsTags(t *testing.T) {
	addr, read := newUDPSink(t)
	client, err := NewClient(Config{
		Enabled:    true,
		Address:    addr,
		GlobalTags: map[string]string{"service": "collector", "env": "test"},
	})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	// Local tags override globals; keys come out sorted.
	client.Count("write.outcome", 1, map[string]string{"env": "ci", "kind": "post"})
	assert.Equal(t, "write.outcome:1|c|#env:ci,kind:post,service:collector", read())
}

func TestDisabledClientEmitsNothing(t *testing.T) {
	client, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)

	// No connection was dialed; emission is a no-op.
	client.Count("job.transition", 1, nil)
	require.NoError(t, client.Close())
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client
	client.Count("x", 1, nil)
	client.Gauge("x", 1, nil)
	client.Timing("x", time.Second, nil)
	assert.NoError(t, client.Close())
}

func TestClientCloseDisablesEmission(t *testing.T) {
	addr, _ := newUDPSink(t)
	client, err := NewClient(Config{Enabled: true, Address: addr})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	// Writing after close must not panic.
	client.Count("job.transition", 1, nil)
}
