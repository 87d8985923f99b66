package visualization

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// Report is the input to RenderHTML.
type Report struct {
	Title  string
	Seed   int64
	Nodes  int
	Edges  int
	Series []epidemic.Snapshot
}

const (
	chartWidth   = 720
	chartHeight  = 320
	chartPadding = 20
)

type chartLine struct {
	Name   string
	Color  string
	Points string
}

// htmlTemplateData holds data passed to the report template.
type htmlTemplateData struct {
	Title   string
	Seed    int64
	Nodes   int
	Edges   int
	Steps   int
	Width   int
	Height  int
	Lines   []chartLine
	Columns []string
	Series  []epidemic.Snapshot
}

// RenderHTML produces a self-contained HTML page with an SVG line chart of
// the series and the full series table.
func RenderHTML(r Report) ([]byte, error) {
	tmplBytes, err := templates.ReadFile("templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}

	tmpl, err := template.New("report").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	title := r.Title
	if title == "" {
		title = "virusnet run"
	}
	steps := 0
	if len(r.Series) > 0 {
		steps = r.Series[len(r.Series)-1].Step
	}

	data := htmlTemplateData{
		Title:   title,
		Seed:    r.Seed,
		Nodes:   r.Nodes,
		Edges:   r.Edges,
		Steps:   steps,
		Width:   chartWidth,
		Height:  chartHeight,
		Lines:   chartLines(r.Series),
		Columns: Columns,
		Series:  r.Series,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// chartLines scales each state count into SVG polyline coordinates.
func chartLines(series []epidemic.Snapshot) []chartLine {
	states := []struct {
		state epidemic.State
		name  string
		count func(epidemic.Snapshot) int
	}{
		{epidemic.Infected, "Infected", func(s epidemic.Snapshot) int { return s.Infected }},
		{epidemic.Susceptible, "Susceptible", func(s epidemic.Snapshot) int { return s.Susceptible }},
		{epidemic.Resistant, "Resistant", func(s epidemic.Snapshot) int { return s.Resistant }},
	}

	total := 1
	if len(series) > 0 && series[0].Total() > 0 {
		total = series[0].Total()
	}
	lastStep := 1
	if len(series) > 1 {
		lastStep = series[len(series)-1].Step
	}

	plotW := float64(chartWidth - 2*chartPadding)
	plotH := float64(chartHeight - 2*chartPadding)

	lines := make([]chartLine, 0, len(states))
	for _, st := range states {
		points := make([]string, 0, len(series))
		for _, s := range series {
			x := chartPadding + plotW*float64(s.Step)/float64(lastStep)
			y := chartPadding + plotH*(1-float64(st.count(s))/float64(total))
			points = append(points, formatCoord(x)+","+formatCoord(y))
		}
		lines = append(lines, chartLine{
			Name:   st.name,
			Color:  stateColors[st.state],
			Points: strings.Join(points, " "),
		})
	}
	return lines
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
