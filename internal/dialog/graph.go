package dialog

import "fmt"

// Edge is one outgoing transition from a Node. A nil Predicate makes the
// edge unconditional — it always matches, and must therefore be the last
// edge declared on its Node (see Graph.Validate).
type Edge struct {
	Predicate Predicate
	Target    string
}

// Node is one question in the decision graph: a prompt template (formatted
// with the caller-supplied bindings plus every prior node's collected
// reply, keyed by node name) and the edges out of it, evaluated in
// insertion order (spec §8: "edges are evaluated in insertion order").
type Node struct {
	Name           string
	PromptTemplate string
	Edges          []Edge
}

// Graph is a decision graph: exactly one node named Init is the entry
// point (spec §8: "exactly one init"), and every edge target must name a
// node that exists in the graph.
type Graph struct {
	Init  string
	Nodes map[string]*Node
}

// NewGraph builds an empty Graph rooted at init.
func NewGraph(init string) *Graph {
	return &Graph{Init: init, Nodes: map[string]*Node{}}
}

// AddNode registers a node, overwriting any prior node of the same name.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.Name] = n
}

// Validate checks the structural invariants a traversal depends on: the
// init node exists, every edge target exists, and only the final edge on
// a node may be unconditional.
func (g *Graph) Validate() error {
	if _, ok := g.Nodes[g.Init]; !ok {
		return fmt.Errorf("dialog: init node %q not found in graph", g.Init)
	}
	for name, n := range g.Nodes {
		for i, e := range n.Edges {
			if e.Predicate == nil && i != len(n.Edges)-1 {
				return fmt.Errorf("dialog: node %q has an unconditional edge before its last edge", name)
			}
			if _, ok := g.Nodes[e.Target]; !ok {
				return fmt.Errorf("dialog: node %q has an edge to undefined node %q", name, e.Target)
			}
		}
	}
	return nil
}
