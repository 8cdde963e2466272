package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/graphstore/pkg/storage"
)

// fixture is the YAML document shape the CLI loads:
//
//	nodes:
//	  alice:
//	    labels: [Person]
//	    properties: {name: Alice}
//	relationships:
//	  ab:
//	    type: KNOWS
//	    nodes: [alice, bob]
//	    properties: {since: 1999}
type fixture struct {
	Nodes         map[string]fixtureNode         `yaml:"nodes"`
	Relationships map[string]fixtureRelationship `yaml:"relationships"`
}

type fixtureNode struct {
	Labels     []string       `yaml:"labels"`
	Properties map[string]any `yaml:"properties"`
}

type fixtureRelationship struct {
	Type       string         `yaml:"type"`
	Nodes      []string       `yaml:"nodes"`
	Properties map[string]any `yaml:"properties"`
}

// loadFixture reads a YAML graph fixture and builds a store from it.
func loadFixture(path string) (*storage.MutableGraphStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	nodes := make(map[storage.NodeID]storage.NodeInput, len(f.Nodes))
	for id, n := range f.Nodes {
		nodes[storage.NodeID(id)] = storage.NodeInput{
			Labels:     n.Labels,
			Properties: n.Properties,
		}
	}
	relationships := make(map[storage.RelationshipID]storage.RelationshipInput, len(f.Relationships))
	for id, r := range f.Relationships {
		endpoints := make([]storage.NodeID, len(r.Nodes))
		for i, n := range r.Nodes {
			if _, ok := f.Nodes[n]; !ok {
				return nil, fmt.Errorf("relationship %s: unknown node %q", id, n)
			}
			endpoints[i] = storage.NodeID(n)
		}
		relationships[storage.RelationshipID(id)] = storage.RelationshipInput{
			Type:       r.Type,
			Endpoints:  endpoints,
			Properties: r.Properties,
		}
	}

	store, err := storage.Build(nodes, relationships)
	if err != nil {
		return nil, fmt.Errorf("building graph from %s: %w", path, err)
	}
	return store, nil
}
