package lineage

import (
	"fmt"
	"slices"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a dataset. Adding an existing dataset does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNode(id)
}

func (g *Graph) addNode(id string) *node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
		steps:      make(map[string][]string),
	}
	g.nodes[id] = n
	return n
}

// AddEdge records that step derives toID from fromID. An error is returned
// if either dataset does not exist or the edge is a self-reference; an
// in-place update is not a derivation.
func (g *Graph) AddEdge(fromID, toID, step string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	if !slices.Contains(toNode.steps[fromID], step) {
		toNode.steps[fromID] = append(toNode.steps[fromID], step)
	}
	return nil
}

// Dependencies returns the sorted names of the datasets id is derived from.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the sorted names of the datasets derived from id.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedKeys(n.dependents), nil
}

// Nodes returns every dataset name, sorted.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return sortedKeys(g.nodes)
}

// Edges returns every edge sorted by source, destination and step.
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var edges []Edge
	for _, to := range g.nodes {
		for from, steps := range to.steps {
			for _, step := range steps {
				edges = append(edges, Edge{From: from, To: to.id, Step: step})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Step < b.Step
	})
	return edges
}

// Cycles returns every distinct cycle found by a depth-first search over the
// datasets in sorted order. Each cycle lists its datasets starting from the
// smallest name. Iteration uses an explicit stack.
func (g *Graph) Cycles() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	seen := map[string]bool{}
	var cycles [][]string

	type frame struct {
		id   string
		next []string
	}
	for _, start := range sortedKeys(g.nodes) {
		if state[start] != unvisited {
			continue
		}
		state[start] = onStack
		stack := []frame{{id: start, next: sortedKeys(g.nodes[start].dependents)}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(top.next) == 0 {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := top.next[0]
			top.next = top.next[1:]

			switch state[child] {
			case unvisited:
				state[child] = onStack
				stack = append(stack, frame{id: child, next: sortedKeys(g.nodes[child].dependents)})
			case onStack:
				var path []string
				for i := len(stack) - 1; i >= 0; i-- {
					path = append(path, stack[i].id)
					if stack[i].id == child {
						break
					}
				}
				slices.Reverse(path)
				cycle := canonical(path)
				if key := fmt.Sprint(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}
	return cycles
}

// canonical rotates a cycle to start at its smallest member.
func canonical(cycle []string) []string {
	least := 0
	for i, id := range cycle {
		if id < cycle[least] {
			least = i
		}
	}
	return append(slices.Clone(cycle[least:]), cycle[:least]...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
