package netchan

import (
	"context"
	"io"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.10.1.2:4000", Endpoint("10.10.1.2", 4000))
}

func TestTCP_SendReceive(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch := NewTCP()
	recv, err := ch.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	defer recv.Close()

	addr := recv.(*tcpReceiver).ln.Addr().String()

	go func() {
		// The listener may not have accepted yet; a single attempt is
		// enough on loopback.
		_ = ch.Send(ctx, addr, "kubeadm join 10.10.1.1:6443 --token abc")
	}()

	line, err := recv.Next()
	require.NoError(t, err)
	assert.Equal(t, "kubeadm join 10.10.1.1:6443 --token abc", line)

	// Sender closed after one line: the connection is exhausted.
	_, err = recv.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCP_SendToNoListener(t *testing.T) {
	t.Parallel()

	// Grab a port with no listener behind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ch := NewTCP()
	err = ch.Send(context.Background(), addr, "payload")
	assert.Error(t, err, "send to a dead port must fail, not hang")
}

func TestTCP_ListenCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	ch := NewTCP()
	recv, err := ch.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := recv.Next()
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not unblock on cancellation")
	}
}

func TestTCP_CloseReleasesWatcher(t *testing.T) {
	t.Parallel()

	// The context is never cancelled, so if Close did not stop the watcher
	// goroutine, every listener cycle would leave one parked for good.
	ctx := context.Background()
	ch := NewTCP()

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		recv, err := ch.Listen(ctx, "127.0.0.1:0")
		require.NoError(t, err)
		require.NoError(t, recv.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 5*time.Second, 10*time.Millisecond, "watcher goroutines were not released on Close")
}

func TestTCP_MultipleLinesOneConnection(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch := NewTCP()
	recv, err := ch.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	defer recv.Close()

	addr := recv.(*tcpReceiver).ln.Addr().String()

	go func() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("first\nsecond\n"))
	}()

	line, err := recv.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = recv.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", line)
}
