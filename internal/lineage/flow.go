package lineage

import (
	"context"
	"slices"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
)

// Step is one data-moving construct with the datasets it reads and writes.
type Step struct {
	ConstructID string
	Inputs      []string
	Outputs     []string
	External    []string
}

// Flow is the data flow of one program.
type Flow struct {
	// Created lists datasets some step writes.
	Created []string `json:"created" yaml:"created"`
	// Used lists datasets some step reads.
	Used []string `json:"used" yaml:"used"`
	// External lists files and paths referenced outside any library.
	External []string `json:"external" yaml:"external"`
	// InPlace lists datasets a step both reads and rewrites.
	InPlace []string   `json:"in_place,omitempty" yaml:"in_place,omitempty"`
	Edges   []Edge     `json:"edges" yaml:"edges"`
	Cycles  [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	// Datasets gives the direct neighbours of every dataset.
	Datasets []Dataset `json:"datasets" yaml:"datasets"`
}

// Dataset is one dataset with the datasets it is derived from and the
// datasets derived from it.
type Dataset struct {
	Name       string   `json:"name" yaml:"name"`
	Upstream   []string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Downstream []string `json:"downstream,omitempty" yaml:"downstream,omitempty"`
}

// Steps lists the data-moving constructs in pre-order. DATA and PROC steps
// count as one step with everything beneath them; inside PROC SQL every
// statement is its own step. LIBNAME and FILENAME statements contribute
// external references only.
func Steps(tree *construct.Tree) []Step {
	var steps []Step
	tree.Walk(func(n *construct.Node, _ []*construct.Node) bool {
		switch n.Kind {
		case construct.DataStep, construct.ProcStep:
			steps = append(steps, collect(n))
			return false
		case construct.SQLStatement, construct.Global:
			s := collect(n)
			if len(s.Inputs)+len(s.Outputs)+len(s.External) > 0 {
				steps = append(steps, s)
			}
			return false
		}
		return true
	})
	return steps
}

// collect gathers the dataset attributes of n and its subtree.
func collect(n *construct.Node) Step {
	s := Step{ConstructID: n.ID}
	stack := []*construct.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.Inputs = appendNew(s.Inputs, cur.Attrs.Strings(construct.AttrInputs)...)
		s.Outputs = appendNew(s.Outputs, cur.Attrs.Strings(construct.AttrOutputs)...)
		s.External = appendNew(s.External, cur.Attrs.Strings(construct.AttrExternal)...)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return s
}

// Build derives the data flow of tree.
func Build(ctx context.Context, tree *construct.Tree) (*Flow, *Graph) {
	logger := ctxlog.FromContext(ctx)
	g := New()
	created, used, external, inPlace := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}

	for _, s := range Steps(tree) {
		for _, ds := range s.Inputs {
			used[ds] = true
			g.AddNode(ds)
		}
		for _, ds := range s.Outputs {
			created[ds] = true
			g.AddNode(ds)
		}
		for _, ext := range s.External {
			external[ext] = true
		}
		for _, in := range s.Inputs {
			for _, out := range s.Outputs {
				if in == out {
					inPlace[in] = true
					continue
				}
				// Both nodes exist and differ, so AddEdge cannot fail.
				_ = g.AddEdge(in, out, s.ConstructID)
			}
		}
	}

	flow := &Flow{
		Created:  sortedKeys(created),
		Used:     sortedKeys(used),
		External: sortedKeys(external),
		InPlace:  sortedKeys(inPlace),
		Edges:    g.Edges(),
		Cycles:   g.Cycles(),
		Datasets: []Dataset{},
	}
	for _, name := range g.Nodes() {
		// Names come from the graph itself, so the lookups cannot fail.
		upstream, _ := g.Dependencies(name)
		downstream, _ := g.Dependents(name)
		flow.Datasets = append(flow.Datasets, Dataset{Name: name, Upstream: nilIfEmpty(upstream), Downstream: nilIfEmpty(downstream)})
	}
	if flow.Edges == nil {
		flow.Edges = []Edge{}
	}
	if len(flow.InPlace) == 0 {
		flow.InPlace = nil
	}
	logger.Debug("Data flow derived.", "datasets", len(g.Nodes()), "edges", len(flow.Edges), "cycles", len(flow.Cycles))
	return flow, g
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func appendNew(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}
