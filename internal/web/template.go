package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/dispenser/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"stateClass": func(s string) string {
		switch s {
		case "ARMED", "DISPENSING":
			return "active"
		case "CLEARANCE_WAIT":
			return "waiting"
		case "EMERGENCY_STOP":
			return "alarm"
		case "IDLE":
			return "idle"
		}
		return "unknown"
	},
	"mib": func(b uint64) string {
		return fmt.Sprintf("%.1f", float64(b)/(1<<20))
	},
	"onOff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

func formatUptime(d time.Duration) string {
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
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Dispenser</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: green; font-weight: bold; }
.waiting { color: orange; font-weight: bold; }
.alarm { color: red; font-weight: bold; }
.idle, .off { color: #888; }
.on { color: green; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Dispenser</h1>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="{{stateClass .StateName}}">{{.StateName}}</td></tr>
{{if .Phase}}<tr><th>Phase</th><td>{{.Phase}}</td></tr>{{end}}
{{if gt .Stage 0}}<tr><th>Stage</th><td>{{.Stage}} of {{.StageCount}}</td></tr>{{end}}
<tr><th>Running</th><td>{{if .Running}}yes{{else}}no{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Inputs</h2>
<table>
<tr><th>Start</th><td class="{{onOff .Inputs.Start}}">{{onOff .Inputs.Start}}</td></tr>
<tr><th>E-Stop</th><td class="{{if .Inputs.EStop}}alarm{{else}}off{{end}}">{{onOff .Inputs.EStop}}</td></tr>
<tr><th>Limit</th><td class="{{onOff .Inputs.Limit}}">{{onOff .Inputs.Limit}}</td></tr>
<tr><th>Object</th><td class="{{onOff .Inputs.Object}}">{{onOff .Inputs.Object}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Motor</th><td>{{.Outputs.Motor}}</td></tr>
<tr><th>Pump</th><td>{{.Outputs.Pump}}</td></tr>
<tr><th>Valve</th><td>{{.Outputs.ValveAngle}}&deg;</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Arms</th><td>{{.Counts.Arms}}</td></tr>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>E-Stops</th><td>{{.Counts.EStops}}</td></tr>
<tr><th>Aborted</th><td>{{.Counts.Aborted}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
{{with .Resources}}<tr><th>CPU</th><td>{{printf "%.1f" .CPUPercent}}%</td></tr>
<tr><th>Memory</th><td>{{mib .RSSBytes}} MiB</td></tr>{{end}}
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Doses</th><td>{{.Config.Doses}} &times; {{.Config.DoseUnitMs}}ms</td></tr>
<tr><th>Pump</th><td>{{.Config.PumpMs}}ms</td></tr>
<tr><th>Valve</th><td>open {{.Config.ValveOpenAngle}}&deg; / closed {{.Config.ValveCloseAngle}}&deg;</td></tr>
<tr><th>Interlock</th><td>{{.Config.Interlock}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	state := string(snap.State)
	if !snap.Baselined || state == "" {
		state = "UNKNOWN"
	}

	data := struct {
		status.Snapshot
		StateName string
		Uptime    time.Duration
	}{
		Snapshot:  snap,
		StateName: state,
		Uptime:    snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
