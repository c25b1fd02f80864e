package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sweeney/button-kbd/internal/logic"
	"github.com/sweeney/button-kbd/internal/status"
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
	"keys": func(k []string) string { return strings.Join(k, " ") },
	"lastEdge": func(e logic.Edge) string {
		if e == logic.EdgeNone {
			return "-"
		}
		return e.String()
	},
	"when": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Button Keyboard</title>
<style>
body { font-family: monospace; max-width: 800px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.emitted { color: green; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Button Keyboard</h1>

<h2>Lines</h2>
<table>
<tr><th>Line</th><th>Trigger</th><th>Keys</th><th>Emitted</th><th>Bounce</th><th>Mismatch</th><th>Last edge</th><th>Last event</th></tr>
{{range .Lines}}<tr id="line-{{.ID}}">
<td>{{.ID}}</td><td>{{.Edges}}</td><td>{{keys .Keys}}</td>
<td class="{{if .Counts.Emitted}}emitted{{else}}idle{{end}}">{{.Counts.Emitted}}</td>
<td>{{.Counts.Bounce}}</td><td>{{.Counts.EdgeMismatch}}</td>
<td>{{lastEdge .LastEdge}}</td><td>{{when .LastEvent}}</td>
</tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>Bounce window</th><td>{{.Config.BounceMs}}ms</td></tr>
<tr><th>Startup grace</th><td>{{.Config.GraceMs}}ms</td></tr>
<tr><th>Settle</th><td>{{.Config.SettleMs}}ms</td></tr>
<tr><th>Poll timeout</th><td>{{.Config.PollTimeoutMs}}ms</td></tr>
<tr><th>Clock resets</th><td>{{.ClockResets}}</td></tr>
<tr><th>Anomalies</th><td>{{.Anomalies}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  function refresh() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(doc) {
      (doc.status.lines || []).forEach(function(l) {
        var row = document.getElementById("line-" + l.line);
        if (!row) { return; }
        var cells = row.getElementsByTagName("td");
        cells[3].textContent = l.counts.emitted;
        cells[3].className = l.counts.emitted ? "emitted" : "idle";
        cells[4].textContent = l.counts.bounce;
        cells[5].textContent = l.counts.edge_mismatch;
        cells[6].textContent = l.last_edge || "-";
        cells[7].textContent = l.last_event || "never";
      });
    }).catch(function() {});
  }
  setInterval(refresh, 2000);
})();
</script>
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
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
