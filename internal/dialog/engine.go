package dialog

import (
	"context"
	"fmt"
	"strings"
)

// ChatCaller is the subset of llm.ChatCaller the engine drives a graph
// through — a single mutable transcript, advanced one user turn at a time.
// Declared locally so internal/dialog never imports internal/llm; any type
// with this method (llm.ChatCaller included) satisfies it.
type ChatCaller interface {
	Call(ctx context.Context, callerTask, user string) (string, error)
}

// Outcome is the result of walking a graph to completion. A dead end (spec
// §7 item 7, §9: "modeled as a result, not an exception") means the
// traversal reached a node whose reply satisfied none of its edges; Text
// is the empty string in that case, and the caller decides how to treat an
// inconclusive dialog rather than unwinding a panic/error for it.
type Outcome struct {
	Text    string
	DeadEnd bool
	Path    []string // node names visited, in order
}

// Run walks graph from its init node, issuing one chat turn per node and
// following the first matching edge. bindings are graph-wide template
// values (e.g. the technology name, the feature under discussion);
// responses already collected from earlier nodes in this walk are also
// available to later nodes' templates, keyed by node name.
func Run(ctx context.Context, g *Graph, caller ChatCaller, callerTask string, bindings map[string]string) (Outcome, error) {
	return RunFrom(ctx, g, caller, callerTask, bindings, g.Init)
}

// RunFrom walks g starting at startNode instead of g.Init — used by fast
// paths that already know the answer to the entry node's question and want
// to skip straight to a downstream node (e.g. the base setback dialog's
// found_ord shortcut, spec §9 supplemented feature).
func RunFrom(ctx context.Context, g *Graph, caller ChatCaller, callerTask string, bindings map[string]string, startNode string) (Outcome, error) {
	if err := g.Validate(); err != nil {
		return Outcome{}, err
	}

	collected := make(map[string]string, len(g.Nodes))
	current := startNode
	var path []string
	var lastReply string

	for {
		node, ok := g.Nodes[current]
		if !ok {
			return Outcome{}, fmt.Errorf("dialog: node %q not found mid-traversal", current)
		}
		path = append(path, current)

		prompt, err := format(node.PromptTemplate, bindings, collected)
		if err != nil {
			return Outcome{}, err
		}

		reply, err := caller.Call(ctx, callerTask, prompt)
		if err != nil {
			return Outcome{}, err
		}
		collected[current] = reply
		lastReply = reply

		if len(node.Edges) == 0 {
			return Outcome{Text: lastReply, Path: path}, nil
		}

		next, matched := nextNode(node, reply)
		if !matched {
			return Outcome{DeadEnd: true, Path: path}, nil
		}
		current = next
	}
}

func nextNode(n *Node, reply string) (string, bool) {
	for _, e := range n.Edges {
		if e.Predicate == nil || e.Predicate(reply) {
			return e.Target, true
		}
	}
	return "", false
}

// format substitutes "{{key}}" placeholders from bindings and collected
// (collected takes precedence — a node can shadow a graph-wide binding
// with its own name) and fails loudly on any placeholder left unresolved,
// rather than silently emitting it verbatim into the prompt.
func format(tmpl string, bindings, collected map[string]string) (string, error) {
	out := tmpl
	for k, v := range collected {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	for k, v := range bindings {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	if i := strings.Index(out, "{{"); i >= 0 {
		j := strings.Index(out[i:], "}}")
		if j >= 0 {
			return "", fmt.Errorf("dialog: unresolved template placeholder %q", out[i:i+j+2])
		}
	}
	return out, nil
}
