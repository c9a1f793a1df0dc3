package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hwalsh/hotplate-pid/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"celsius": func(v float64) string {
		return fmt.Sprintf("%.2f °C", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Hotplate PID</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.lost { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Hotplate PID</h1>

<h2>Control</h2>
<table>
<tr><th>Target</th><td>{{celsius .Target}}</td></tr>
<tr><th>Current</th><td>{{celsius .Current}}</td></tr>
<tr><th>Ambient</th><td>{{celsius .Ambient}}</td></tr>
<tr><th>Heat Power</th><td>{{printf "%.0f" .Power}} / 1000</td></tr>
<tr><th>Relay</th><td class="{{if .RelayOn}}on{{else}}off{{end}}">{{if .RelayOn}}ON{{else}}OFF{{end}}</td></tr>
</table>

<h2>Gains</h2>
<table>
<tr><th>P</th><td>{{printf "%.2f" .PGain}}</td></tr>
<tr><th>I</th><td>{{printf "%.2f" .IGain}}</td></tr>
<tr><th>D</th><td>{{printf "%.2f" .DGain}}</td></tr>
</table>

<h2>Sensor</h2>
<table>
<tr><th>Health</th><td class="{{if .SensorLost}}lost{{else}}on{{end}}">{{if .SensorLost}}LOST{{else}}OK{{end}}</td></tr>
<tr><th>Consecutive Timeouts</th><td>{{.Timeouts}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>PID Interval</th><td>{{.Config.PIDIntervalMs}}ms</td></tr>
<tr><th>Heater Window</th><td>{{.Config.HeaterWindowMs}}ms</td></tr>
<tr><th>Sensor Timeout</th><td>{{.Config.SensorTimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialPort}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
