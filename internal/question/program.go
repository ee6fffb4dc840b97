package question

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is one step of a functional program.
type Node struct {
	Type       string   `json:"type"`
	Inputs     []int    `json:"inputs"`
	SideInputs []string `json:"side_inputs,omitempty"`

	output *Value
}

// Program is an ordered list of nodes; the last node's output is the answer.
// Node outputs are memoized in the program itself, so a Program must not be
// evaluated concurrently. Use Clone for independent copies.
type Program struct {
	Nodes []*Node `json:"nodes"`

	memoView     *View
	memoRevision uint64
}

// UnmarshalJSON accepts both {"nodes": [...]} and a bare node array.
func (p *Program) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &p.Nodes)
	}
	var wrapper struct {
		Nodes []*Node `json:"nodes"`
	}
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	p.Nodes = wrapper.Nodes
	return nil
}

// Validate checks that the program is non-empty and that every input
// references an earlier node.
func (p *Program) Validate() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrMalformedProgram)
	}
	for k, n := range p.Nodes {
		if n == nil {
			return fmt.Errorf("%w: node %d is null", ErrMalformedProgram, k)
		}
		for _, in := range n.Inputs {
			if in < 0 || in >= k {
				return fmt.Errorf("%w: node %d (%s) references node %d", ErrMalformedProgram, k, n.Type, in)
			}
		}
	}
	return nil
}

// Clone returns a deep copy without memoized outputs.
func (p *Program) Clone() *Program {
	nodes := make([]*Node, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = &Node{
			Type:       n.Type,
			Inputs:     append([]int(nil), n.Inputs...),
			SideInputs: append([]string(nil), n.SideInputs...),
		}
	}
	return &Program{Nodes: nodes}
}

// Reset drops all memoized outputs.
func (p *Program) Reset() {
	for _, n := range p.Nodes {
		n.output = nil
	}
	p.memoView = nil
	p.memoRevision = 0
}

// bind ties the memo to a view, resetting it when the view or its scene
// changed since the last evaluation.
func (p *Program) bind(v *View) {
	rev := v.Scene().Revision()
	if p.memoView != v || p.memoRevision != rev {
		p.Reset()
		p.memoView = v
		p.memoRevision = rev
	}
}

// InsertSceneNode returns a copy of nodes with nodes[idx] replaced by a
// scene node, keeping only the nodes the final node still depends on and
// renumbering their inputs.
func InsertSceneNode(nodes []*Node, idx int) []*Node {
	copied := make([]*Node, len(nodes))
	for i, n := range nodes {
		copied[i] = &Node{Type: n.Type, Inputs: n.Inputs, SideInputs: n.SideInputs}
	}
	copied[idx] = &Node{Type: kindNames[KindScene], Inputs: []int{}}

	used := make([]bool, len(copied))
	stack := []int{len(copied) - 1}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if used[cur] {
			continue
		}
		used[cur] = true
		stack = append(stack, copied[cur].Inputs...)
	}

	remap := make(map[int]int, len(copied))
	var trimmed []*Node
	for old, n := range copied {
		if used[old] {
			remap[old] = len(trimmed)
			trimmed = append(trimmed, n)
		}
	}
	for _, n := range trimmed {
		inputs := make([]int, len(n.Inputs))
		for i, old := range n.Inputs {
			inputs[i] = remap[old]
		}
		n.Inputs = inputs
	}
	return trimmed
}
