package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/hestia/internal/status"
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
	"orDash": func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	},
	"stateClass": func(s string) string {
		switch s {
		case "HEATING":
			return "heating"
		case "COOLING":
			return "cooling"
		case "FAILED":
			return "failed"
		}
		return "idle"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Hestia</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.heating { color: #c40; font-weight: bold; }
.cooling { color: #06c; font-weight: bold; }
.failed { color: red; font-weight: bold; }
.idle { color: #888; }
.absent { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Hestia</h1>

<h2>Program</h2>
<table>
<tr><th>State</th><td class="{{stateClass (printf "%s" .Program.State)}}">{{.Program.State}}</td></tr>
{{if .Program.Program}}<tr><th>Program</th><td>{{.Program.ProgramID}}: {{.Program.Program}} ({{.Program.Board}})</td></tr>
{{if not .Program.Deadline.IsZero}}<tr><th>Heat until</th><td>{{.Program.Deadline.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}{{end}}
{{if .Program.Message}}<tr><th>Message</th><td>{{.Program.Message}}</td></tr>{{end}}
<tr><th>Started / aborted / timed out / finished</th><td>{{.Program.Counts.Started}} / {{.Program.Counts.Aborted}} / {{.Program.Counts.TimedOut}} / {{.Program.Counts.Finished}}</td></tr>
</table>

{{range .Boards}}
<h2>Board {{.Name}}</h2>
{{if .Status}}
<table>
<tr><th>Heater</th><td>{{orDash .Status.HeaterMode}} duty {{orDash .Status.HeaterDuty}} power {{orDash .Status.HeaterPower}} W</td></tr>
<tr><th>Target</th><td>{{orDash .Status.TargetTemp}} °C on {{orDash .Status.TargetSensor}} ({{orDash .Status.TargetSensorTemp}} °C)</td></tr>
<tr><th>Flags</th><td>{{orDash .Status.Flags}}</td></tr>
{{$values := .Status.SensorValues}}{{range .Status.SensorInfo}}<tr><th>{{.ID}} <small>{{.Label}}</small></th><td>{{orDash (index $values .ID)}} {{.Unit}}</td></tr>
{{end}}
</table>
<p><small>read {{.ReadAt.UTC.Format "2006-01-02T15:04:05Z"}}</small></p>
{{else}}
<p class="absent">not present</p>
{{end}}
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Board version</th><td>{{.Config.Version}}</td></tr>
<tr><th>Log interval</th><td>{{.Config.Interval}}</td></tr>
<tr><th>Log path</th><td>{{if .Config.LogPath}}{{.Config.LogPath}}{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/api/status">live status</a> · <a href="/api/log_files">logs</a></p>
</body>
</html>
`

type boardView struct {
	Name   string
	Status *status.BoardJSON
	ReadAt time.Time
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Boards []boardView
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if data.Program.State == "" {
		data.Program.State = "IDLE"
	}
	for _, bs := range snap.Boards {
		data.Boards = append(data.Boards, boardView{
			Name:   bs.ID.String(),
			Status: status.NewBoardJSON(bs.Reading),
			ReadAt: bs.ReadAt,
		})
	}
	indexTmpl.Execute(w, data)
}
