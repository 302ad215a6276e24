package e2e

import (
	"fmt"
	"strings"
)

// e2eOptions controls the generated service config.
// Params: mode, launch NATS URL, storage, autosave, reload, and metrics switches.
// Returns: config fixture options.
type e2eOptions struct {
	Mode            string
	NATSURL         string
	StoragePath     string
	AutoSaveEnabled bool
	DelayMS         int
	Reload          bool
	Metrics         bool
}

// e2eConfigTOML builds a complete service config for one HTTP port.
// Params: HTTP port and fixture options.
// Returns: TOML document.
func e2eConfigTOML(port int, opts e2eOptions) string {
	mode := opts.Mode
	if mode == "" {
		mode = "single"
	}
	delayMS := opts.DelayMS
	if delayMS == 0 {
		delayMS = 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
[service]
name = "signalconfig-e2e"
mode = %q
reload_enabled = %t
reload_interval_sec = 1

[log.console]
enabled = true
level = "error"
format = "line"

[http]
listen = "127.0.0.1:%d"
health_path = "/healthz"
ready_path = "/readyz"
api_prefix = "/api"
max_body_bytes = 1048576

[autosave]
enabled = %t
delay_ms = %d

[metrics]
enabled = %t
path = "/metrics"
`, mode, opts.Reload, port, opts.AutoSaveEnabled, delayMS, opts.Metrics)

	if opts.StoragePath != "" {
		fmt.Fprintf(&b, `
[storage]
backend = "sqlite"
path = %q
`, opts.StoragePath)
	}
	if opts.NATSURL != "" {
		fmt.Fprintf(&b, `
[launch]
url = [%q]
subject = "signalconfig.e2e.launches"
stream = "SIGNAL_LAUNCHES_E2E"
`, opts.NATSURL)
	}
	return b.String()
}

const e2eValidDraftJSON = `{
	"signalId":"sig-e2e","signalName":"Weekly revenue","destinationType":"channel","selectedChannel":"general",
	"triggerType":"scheduled","frequency":"weekly","startDateTime":"2026-10-16T09:00","timezone":"UTC",
	"signalPrompt":"Summarize weekly revenue","selectedMetrics":["revenue"],"timeFrame":"last-7-days",
	"hasContent":true,"contentBlocks":[{"id":"b1","type":"paragraph","content":"Hi {{ .UserName }}"}]
}`
