package network

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/virusnet/internal/sanitize"
)

// gexfDocument is the subset of the GEXF 1.x schema needed to recover
// topology. Attributes, viz data and dynamics are ignored.
type gexfDocument struct {
	XMLName xml.Name `xml:"gexf"`
	Graph   struct {
		Nodes []struct {
			ID    string `xml:"id,attr"`
			Label string `xml:"label,attr"`
		} `xml:"nodes>node"`
		Edges []struct {
			Source string `xml:"source,attr"`
			Target string `xml:"target,attr"`
		} `xml:"edges>edge"`
	} `xml:"graph"`
}

// LoadGEXF reads a GEXF file and relabels its nodes to 0..N-1 in document
// order. Edge direction is discarded and self-loops and parallel edges are
// dropped, so the result is always simple and undirected.
func LoadGEXF(path string) (*AdjacencyList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gexf: %w", err)
	}
	defer f.Close()

	g, err := ReadGEXF(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return g, nil
}

// ReadGEXF decodes a GEXF document from r. See LoadGEXF.
func ReadGEXF(r io.Reader) (*AdjacencyList, error) {
	var doc gexfDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGEXF, err)
	}

	nodes := doc.Graph.Nodes
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedGEXF)
	}

	index := make(map[string]int, len(nodes))
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node %d has no id", ErrMalformedGEXF, i)
		}
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrMalformedGEXF, n.ID)
		}
		index[n.ID] = i
		labels[i] = sanitize.Label(n.Label)
		if labels[i] == "" {
			labels[i] = sanitize.Label(n.ID)
		}
	}

	b := NewBuilder(len(nodes))
	b.SetLabels(labels)
	for _, e := range doc.Graph.Edges {
		u, ok := index[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: edge source %q is not a node", ErrMalformedGEXF, e.Source)
		}
		v, ok := index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: edge target %q is not a node", ErrMalformedGEXF, e.Target)
		}
		if _, err := b.AddEdge(u, v); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
