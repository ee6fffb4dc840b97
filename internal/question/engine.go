// Package question evaluates functional programs over a scene.
//
// Tests in the domain packages (question, scene, preview) use testify's
// assert and require.
package question

import (
	"fmt"
)

// Handler computes the output of one node from the outputs of its inputs
// and its literal side inputs. Errors are reserved for malformed programs;
// undecidable answers are reported as Invalid.
type Handler func(v *View, inputs []Value, side []string) (Value, error)

// Option configures an Engine.
type Option func(*Engine)

// WithoutCache disables per-node memoization.
func WithoutCache() Option {
	return func(e *Engine) { e.cacheOutputs = false }
}

// WithHandler replaces the handler of one kind.
func WithHandler(k HandlerKind, h Handler) Option {
	return func(e *Engine) { e.handlers[k] = h }
}

// Engine evaluates programs against scenes.
type Engine struct {
	handlers     [numKinds]Handler
	cacheOutputs bool
}

// NewEngine returns an engine with the full handler catalog and output
// caching enabled.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		handlers:     catalog(),
		cacheOutputs: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer evaluates p and returns the output of its final node, or Invalid
// if evaluation stopped early.
func (e *Engine) Answer(p *Program, v *View) (Value, error) {
	outputs, err := e.run(p, v, e.cacheOutputs)
	if err != nil {
		return Invalid, err
	}
	return outputs[len(outputs)-1], nil
}

// AllOutputs evaluates p and returns the output of every node evaluated.
// The list ends at the first Invalid output.
func (e *Engine) AllOutputs(p *Program, v *View) ([]Value, error) {
	return e.run(p, v, e.cacheOutputs)
}

func (e *Engine) run(p *Program, v *View, cache bool) ([]Value, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cache {
		p.bind(v)
	}

	outputs := make([]Value, 0, len(p.Nodes))
	for k, n := range p.Nodes {
		var out Value
		if cache && n.output != nil {
			out = *n.output
		} else {
			kind, err := ParseKind(n.Type)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", k, err)
			}
			h := e.handlers[kind]
			if h == nil {
				return nil, fmt.Errorf("node %d: %w: %q has no handler", k, ErrUnknownHandler, n.Type)
			}

			inputs := make([]Value, len(n.Inputs))
			for i, idx := range n.Inputs {
				inputs[i] = outputs[idx]
			}
			out, err = h(v, inputs, n.SideInputs)
			if err != nil {
				return nil, fmt.Errorf("node %d (%s): %w", k, n.Type, err)
			}
			if cache {
				n.output = &out
			}
		}

		outputs = append(outputs, out)
		if out.IsInvalid() {
			break
		}
	}
	return outputs, nil
}

// IsDegenerate reports whether some relate node of p can be replaced by the
// whole scene without changing the answer, i.e. the relation carries no
// information.
func (e *Engine) IsDegenerate(p *Program, v *View) (bool, error) {
	answer, err := e.Answer(p, v)
	if err != nil {
		return false, err
	}
	for idx, n := range p.Nodes {
		if !isRelate(n.Type) {
			continue
		}
		variant := &Program{Nodes: InsertSceneNode(p.Nodes, idx)}
		outputs, err := e.run(variant, v, false)
		if err != nil {
			return false, err
		}
		if outputs[len(outputs)-1].Equal(answer) {
			return true, nil
		}
	}
	return false, nil
}
