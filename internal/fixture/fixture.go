// Package fixture reads the YAML graph format shared by the in-memory store
// and the Neo4j importer.
//
//	nodes:
//	  - id: genji
//	    label: Character
//	    properties: {name: Genji}
//	edges:
//	  - {from: genji, to: p0101, type: SPEAKER_OF}
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Node struct {
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Properties map[string]any `yaml:"properties"`
}

type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

type Graph struct {
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

func Load(path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks that node ids are unique and every edge joins known nodes.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: id required", i)
		}
		if n.Label == "" {
			return fmt.Errorf("node %s: label required", n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %s: duplicate id", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, e := range g.Edges {
		if e.Type == "" {
			return fmt.Errorf("edge %d: type required", i)
		}
		if _, ok := seen[e.From]; !ok {
			return fmt.Errorf("edge %d: unknown from node %q", i, e.From)
		}
		if _, ok := seen[e.To]; !ok {
			return fmt.Errorf("edge %d: unknown to node %q", i, e.To)
		}
	}
	return nil
}
