package lineage

import "sync"

// Graph is a collection of dataset nodes and the steps that link them.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all datasets in the graph, keyed by name.
	nodes map[string]*node
}

// node is a single dataset. It is un-exported to enforce interaction with
// the graph via the public API (using names), not by direct struct
// manipulation.
type node struct {
	id string
	// deps holds the datasets this one is derived from, each with the
	// steps that derive it.
	deps map[string]*node
	// dependents holds the datasets derived from this one.
	dependents map[string]*node
	// steps maps a dependency name to the construct IDs of the steps that
	// read it to write this dataset.
	steps map[string][]string
}

// Edge is one derivation: step reads From and writes To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Step string `json:"step" yaml:"step"`
}
