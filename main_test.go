package main

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestProgName(t *testing.T) {
	tests := map[string]string{
		"/usr/local/bin/kblayout": "kblayout",
		"./kblayout":              "kblayout",
		"kblayout":                "kblayout",
		"/usr/bin/":               "",
		"":                        "",
	}

	for argv0, expected := range tests {
		assert.Equal(t, expected, progName(argv0), argv0)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(true, "kblayout")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))

	log, err = newLogger(false, "kblayout")
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

type recordingSurface struct {
	labels []string
	err    error
}

func (r *recordingSurface) Draw(label string) error {
	if r.err != nil {
		return r.err
	}
	r.labels = append(r.labels, label)
	return nil
}

func TestStatusSurface_Draw(t *testing.T) {
	inner := &recordingSurface{}
	var states []string
	s := &statusSurface{
		Surface: inner,
		notify: func(state string) (bool, error) {
			states = append(states, state)
			return true, errors.New("no socket")
		},
		log: zap.NewNop().Sugar(),
	}

	require.NoError(t, s.Draw("EN"))
	require.NoError(t, s.Draw("D "))
	require.NoError(t, s.Draw("  "))

	assert.Equal(t, []string{"EN", "D ", "  "}, inner.labels)
	assert.Equal(t, []string{"STATUS=Layout EN", "STATUS=Layout D", "STATUS=Layout (unnamed)"}, states)
}

func TestStatusSurface_DrawFailureSkipsStatus(t *testing.T) {
	drawErr := errors.New("bad drawable")
	called := false
	s := &statusSurface{
		Surface: &recordingSurface{err: drawErr},
		notify: func(string) (bool, error) {
			called = true
			return true, nil
		},
		log: zap.NewNop().Sugar(),
	}

	assert.ErrorIs(t, s.Draw("EN"), drawErr)
	assert.False(t, called)
}

// listenNotify stands in for the service manager's notification socket.
func listenNotify(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func readNotify(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 256)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestSystemdNotifyLoop_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	err := systemdNotifyLoop(context.Background(), "x11", func() error {
		t.Fatal("ping without a service manager")
		return nil
	})
	assert.NoError(t, err)
}

func TestSystemdNotifyLoop_WatchdogFollowsPing(t *testing.T) {
	conn := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "20000")
	t.Setenv("WATCHDOG_PID", "")

	pingErr := errors.New("connection closed")
	pings := 0
	ping := func() error {
		pings++
		if pings > 1 {
			return pingErr
		}
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- systemdNotifyLoop(context.Background(), "x11", ping)
	}()

	assert.Equal(t, "READY=1\nSTATUS=Waiting for x11 layout changes", readNotify(t, conn))
	assert.Equal(t, "WATCHDOG=1", readNotify(t, conn))
	assert.Equal(t, "STATUS=X server stopped answering", readNotify(t, conn))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, pingErr)
	case <-time.After(time.Second):
		t.Fatal("loop kept running after a failed ping")
	}
}

func TestSystemdNotifyLoop_StopsOnCancel(t *testing.T) {
	conn := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "20000")
	t.Setenv("WATCHDOG_PID", "")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- systemdNotifyLoop(ctx, "hyprland", func() error { return nil })
	}()

	assert.Equal(t, "READY=1\nSTATUS=Waiting for hyprland layout changes", readNotify(t, conn))
	assert.Equal(t, "WATCHDOG=1", readNotify(t, conn))
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}
