package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitFor polls check until it holds or timeout passes.
// Params: test handle, timeout, and condition.
// Returns: none; the test fails on timeout.
func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for condition")
}

// writeConfig writes TOML into a fresh temp config file.
// Params: test handle and document body.
// Returns: absolute config path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// doJSON sends one request and decodes a JSON response when out is non-nil.
// Params: test handle, method, URL, optional body, and decode target.
// Returns: HTTP status code.
func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	request, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, url, raw, err)
		}
	}
	return response.StatusCode
}

type editorSnapshot struct {
	ID   string `json:"id"`
	Data struct {
		SignalName string `json:"signalName"`
		IsComplete bool   `json:"isComplete"`
	} `json:"data"`
	Indicator string `json:"indicator"`
	CanLaunch bool   `json:"canLaunch"`
}
