// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"net"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

// FreePort reserves a local TCP port and returns it to the caller.
// Params: none.
// Returns: free port number or error.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// StartLocalNATSServer starts a JetStream-enabled nats-server for launch tests.
// Params: test handle; the test is skipped when nats-server is not installed.
// Returns: server URL and idempotent stop callback, also registered as cleanup.
func StartLocalNATSServer(tb testing.TB) (string, func()) {
	tb.Helper()

	port, err := FreePort()
	if err != nil {
		tb.Fatalf("free port: %v", err)
	}

	cmd := exec.Command("nats-server", "-js", "-a", "127.0.0.1", "-p", strconv.Itoa(port), "-sd", tb.TempDir())
	if err := cmd.Start(); err != nil {
		tb.Skipf("nats-server is required for launch integration tests: %v", err)
	}

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			done := make(chan struct{})
			go func() {
				_, _ = cmd.Process.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				_ = cmd.Process.Kill()
				<-done
			}
		})
	}
	tb.Cleanup(stop)

	url := "nats://127.0.0.1:" + strconv.Itoa(port)
	WaitForNATSReady(tb, url, 8*time.Second)
	return url, stop
}

// WaitForNATSReady polls until a NATS endpoint accepts connections.
// Params: test handle, nats URL, and timeout.
// Returns: endpoint is reachable or test fails.
func WaitForNATSReady(tb testing.TB, url string, timeout time.Duration) {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		nc, err := nats.Connect(url)
		if err == nil {
			nc.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	tb.Fatalf("nats did not become ready at %s", url)
}

// ConnectJetStream opens a client connection for asserting on published launch events.
// Params: test handle and nats URL.
// Returns: JetStream context; the connection is closed on test cleanup.
func ConnectJetStream(tb testing.TB, url string) nats.JetStreamContext {
	tb.Helper()

	nc, err := nats.Connect(url)
	if err != nil {
		tb.Fatalf("connect nats: %v", err)
	}
	tb.Cleanup(nc.Close)
	js, err := nc.JetStream()
	if err != nil {
		tb.Fatalf("jetstream init: %v", err)
	}
	return js
}
