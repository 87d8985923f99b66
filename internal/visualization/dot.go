// Package visualization renders contact networks and epidemic time series
// in various output formats.
package visualization

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nvandessel/virusnet/internal/epidemic"
	"github.com/nvandessel/virusnet/internal/ranking"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Graph is the read-only view of a contact network needed for rendering.
// *network.AdjacencyList satisfies it.
type Graph interface {
	Len() int
	Neighbors(id int) []int
	Label(id int) string
	Edges() [][2]int
}

// stateColors follows the NetLogo virus-on-a-network palette.
var stateColors = map[epidemic.State]string{
	epidemic.Susceptible: "steelblue",
	epidemic.Infected:    "tomato",
	epidemic.Resistant:   "gray",
}

// RenderDOT produces an undirected Graphviz DOT graph with nodes filled by
// state. states may be nil, in which case every node is drawn susceptible.
func RenderDOT(g Graph, states []epidemic.State) (string, error) {
	if states != nil && len(states) != g.Len() {
		return "", fmt.Errorf("have %d states for %d nodes", len(states), g.Len())
	}

	var b strings.Builder
	b.WriteString("graph virusnet {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  overlap=false;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=10];\n\n")

	for id := 0; id < g.Len(); id++ {
		state := stateAt(states, id)
		b.WriteString(fmt.Sprintf("  %d [label=%s, fillcolor=%s, tooltip=%s];\n",
			id, dotQuote(truncate(g.Label(id), 24)), dotQuote(stateColors[state]), dotQuote(state.String())))
	}
	b.WriteString("\n")

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  %d -- %d;\n", e[0], e[1]))
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// RenderJSON produces a JSON-ready graph with nodes and edges arrays. Each
// node carries its degree and normalized PageRank.
func RenderJSON(g Graph, states []epidemic.State) (map[string]interface{}, error) {
	if states != nil && len(states) != g.Len() {
		return nil, fmt.Errorf("have %d states for %d nodes", len(states), g.Len())
	}

	pageRank, err := ranking.ComputePageRank(context.Background(), g, ranking.DefaultPageRankConfig())
	if err != nil {
		return nil, err
	}

	jsonNodes := make([]map[string]interface{}, 0, g.Len())
	for id := 0; id < g.Len(); id++ {
		jsonNodes = append(jsonNodes, map[string]interface{}{
			"id":       id,
			"label":    g.Label(id),
			"state":    stateAt(states, id).String(),
			"degree":   len(g.Neighbors(id)),
			"pagerank": pageRank[id],
		})
	}

	edges := g.Edges()
	jsonEdges := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		jsonEdges = append(jsonEdges, map[string]interface{}{
			"source": e[0],
			"target": e[1],
		})
	}

	return map[string]interface{}{
		"nodes":      jsonNodes,
		"edges":      jsonEdges,
		"node_count": len(jsonNodes),
		"edge_count": len(jsonEdges),
	}, nil
}

func stateAt(states []epidemic.State, id int) epidemic.State {
	if states == nil {
		return epidemic.Susceptible
	}
	return states[id]
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// dotEscaper escapes the only two characters special inside a DOT quoted
// string. Graphviz reads every other rune literally, so no \u or \x escapes.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
