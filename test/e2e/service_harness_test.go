package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"signalconfig/internal/app"
	"signalconfig/internal/clock"
	"signalconfig/internal/config"
	"signalconfig/test/testutil"
)

// runningService is one Service started from a generated config file.
// Params: config path and port survive restarts so storage and listener are reused.
// Returns: handle for HTTP calls, config rewrites, and restarts.
type runningService struct {
	t          *testing.T
	port       int
	configPath string
	baseURL    string
	service    *app.Service
	cancel     context.CancelFunc
	done       <-chan error
}

// startService writes the config for opts, runs the service, and waits for readiness.
// Params: test handle and fixture options (mode, storage, autosave, reload, metrics).
// Returns: running service; it is stopped on test cleanup.
func startService(t *testing.T, opts e2eOptions) *runningService {
	t.Helper()

	port, err := testutil.FreePort()
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	rs := &runningService{
		t:          t,
		port:       port,
		configPath: writeConfig(t, e2eConfigTOML(port, opts)),
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
	}
	rs.start()
	t.Cleanup(rs.stop)
	return rs
}

// start builds a fresh Service from the config file and blocks until /readyz answers.
// Params: none.
// Returns: none; the test fails on setup or readiness errors.
func (rs *runningService) start() {
	rs.t.Helper()

	source, err := config.FromCLI(rs.configPath, "")
	if err != nil {
		rs.t.Fatalf("config source: %v", err)
	}
	service, err := app.NewService(source, clock.RealClock{})
	if err != nil {
		rs.t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- service.Run(ctx)
	}()
	rs.service, rs.cancel, rs.done = service, cancel, done

	waitFor(rs.t, 8*time.Second, func() bool {
		response, err := http.Get(rs.url("/readyz"))
		if err != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	})
}

// stop cancels Run and asserts a clean shutdown; repeated calls are no-ops.
// Params: none.
// Returns: none; the test fails on a run error or a stop timeout.
func (rs *runningService) stop() {
	rs.t.Helper()
	if rs.cancel == nil {
		return
	}
	rs.cancel()
	rs.cancel = nil

	select {
	case runErr := <-rs.done:
		if runErr != nil {
			rs.t.Fatalf("service run error: %v", runErr)
		}
	case <-time.After(8 * time.Second):
		rs.t.Fatalf("service did not stop after cancel")
	}
}

// restart replaces the service with a new process-equivalent instance on the same config and storage.
// Params: none.
// Returns: none.
func (rs *runningService) restart() {
	rs.t.Helper()
	rs.stop()
	rs.start()
}

// rewriteConfig replaces the config file picked up by the reload loop.
// Params: new fixture options; the port stays the same.
// Returns: none.
func (rs *runningService) rewriteConfig(opts e2eOptions) {
	rs.t.Helper()
	if err := os.WriteFile(rs.configPath, []byte(e2eConfigTOML(rs.port, opts)), 0o644); err != nil {
		rs.t.Fatalf("rewrite config: %v", err)
	}
}

// url joins path onto the service base URL.
func (rs *runningService) url(path string) string {
	return rs.baseURL + path
}

// openEditor opens an editor, resuming a stored draft when resume is set.
// Params: storage key or empty string.
// Returns: initial snapshot.
func (rs *runningService) openEditor(resume string) editorSnapshot {
	rs.t.Helper()
	body := ""
	if resume != "" {
		body = fmt.Sprintf(`{"resume":%q}`, resume)
	}
	var snap editorSnapshot
	if code := doJSON(rs.t, http.MethodPost, rs.url("/api/editors"), body, &snap); code != http.StatusCreated {
		rs.t.Fatalf("expected open 201, got %d", code)
	}
	return snap
}

// patchEditor applies a JSON patch to an open editor.
// Params: editor id and patch body.
// Returns: snapshot after the merge.
func (rs *runningService) patchEditor(id, patch string) editorSnapshot {
	rs.t.Helper()
	var snap editorSnapshot
	if code := doJSON(rs.t, http.MethodPatch, rs.url("/api/editors/"+id), patch, &snap); code != http.StatusOK {
		rs.t.Fatalf("expected patch 200, got %d", code)
	}
	return snap
}

// snapshot reads the current editor read model.
func (rs *runningService) snapshot(id string) editorSnapshot {
	rs.t.Helper()
	var snap editorSnapshot
	doJSON(rs.t, http.MethodGet, rs.url("/api/editors/"+id), "", &snap)
	return snap
}

// waitAutoSaved polls until the editor indicator reports a finished save.
// Params: editor id.
// Returns: none; the test fails after five seconds.
func (rs *runningService) waitAutoSaved(id string) {
	rs.t.Helper()
	waitFor(rs.t, 5*time.Second, func() bool {
		return strings.HasPrefix(rs.snapshot(id).Indicator, "Saved")
	})
}
