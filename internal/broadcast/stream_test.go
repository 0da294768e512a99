package broadcast

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets/sockettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func received(viewer *sockettest.Recorder) []byte {
	var out []byte
	for _, f := range viewer.Frames() {
		out = append(out, f.Data...)
	}
	return out
}

func startStream(t *testing.T, reg *registry.Registry) *StreamListener {
	t.Helper()
	listener := NewStreamListener(reg, NewFanOut(reg), 64)
	require.NoError(t, listener.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return listener
}

func TestStreamListenerFansOutProducerBytes(t *testing.T) {
	reg := registry.New(registry.ModeBroadcast)
	viewers := addViewers(reg, 3)
	listener := startStream(t, reg)

	producer, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer producer.Close()
	require.Eventually(t, func() bool { return reg.Status().Producer }, 3*time.Second, 5*time.Millisecond)

	payload := bytes.Repeat([]byte("0123456789"), 20)
	_, err = producer.Write(payload)
	require.NoError(t, err)

	for _, viewer := range viewers {
		require.Eventually(t, func() bool {
			return bytes.Equal(payload, received(viewer))
		}, 3*time.Second, 5*time.Millisecond)
	}
	for _, f := range viewers[0].Frames() {
		assert.LessOrEqual(t, len(f.Data), 64)
	}

	require.NoError(t, producer.Close())
	require.Eventually(t, func() bool { return !reg.Status().Producer }, 3*time.Second, 5*time.Millisecond)
}

func TestStreamListenerDropsReplacedProducer(t *testing.T) {
	reg := registry.New(registry.ModeBroadcast)
	viewer := addViewers(reg, 1)[0]
	listener := startStream(t, reg)

	first, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return listener.conns.Len() == 1 }, 3*time.Second, 5*time.Millisecond)

	second, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer second.Close()
	require.Eventually(t, func() bool { return listener.conns.Len() == 2 }, 3*time.Second, 5*time.Millisecond)

	_, err = first.Write([]byte("old"))
	require.NoError(t, err)
	_, err = second.Write([]byte("new"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bytes.Contains(received(viewer), []byte("new"))
	}, 3*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.NotContains(t, string(received(viewer)), "old")

	// the orphan leaving keeps the current producer registered
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return listener.conns.Len() == 1 }, 3*time.Second, 5*time.Millisecond)
	assert.True(t, reg.Status().Producer)
}
