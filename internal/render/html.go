package render

import (
	"html/template"
	"strings"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
)

var diagramTemplate = template.Must(template.New("diagram").Parse(`<table class="diagram">
<tr><td></td>{{template "seat" index .Blocks 0}}<td></td></tr>
<tr>{{template "seat" index .Blocks 1}}<td></td>{{template "seat" index .Blocks 3}}</tr>
<tr><td></td>{{template "seat" index .Blocks 2}}<td></td></tr>
</table>
{{- if .Auction}}
<table class="auction">
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{- range .Auction}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
{{- if .Context}}
<p class="context">{{.Context}}</p>
{{- end}}
{{define "seat"}}<td class="seat seat-{{.Seat}}">{{if not .Hidden}}{{range $i, $l := .Lines}}{{if $i}}<br>{{end}}{{$l}}{{end}}{{end}}</td>{{end}}`))

type htmlView struct {
	*Diagram
	Header [4]string
}

// HTML lays the diagram out as a 3x3 table with the auction and context below it.
func (d *Diagram) HTML() (string, error) {
	view := htmlView{Diagram: d}
	for i, s := range bridge.SeatOrder {
		view.Header[i] = s.String()
	}
	var b strings.Builder
	if err := diagramTemplate.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
