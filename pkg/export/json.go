package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/errors"
)

// WriteJSON encodes p as compact JSON followed by a newline.
func WriteJSON(p *Payload, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the compact JSON encoding of p.
func MarshalJSON(p *Payload) ([]byte, error) {
	return json.Marshal(p)
}

// WriteJSONFile writes p to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func WriteJSONFile(p *Payload, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.FromFS(err, path)
	}
	if err := WriteJSON(p, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.FromFS(err, path)
	}
	return nil
}

// ReadJSON decodes a payload previously written by [WriteJSON]. Total is
// recomputed from the stacks.
func ReadJSON(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Edges == nil {
		p.Edges = []Edge{}
	}
	if p.Stacks == nil {
		p.Stacks = []Stack{}
	}
	for _, s := range p.Stacks {
		for _, i := range s.Nodes {
			if i < 0 || i >= len(p.Nodes) {
				return nil, fmt.Errorf("stack references node %d of %d", i, len(p.Nodes))
			}
		}
		p.Total += s.Weights.Get(callgraph.DimCalls)
	}
	for _, e := range p.Edges {
		if e.Source < 0 || e.Source >= len(p.Nodes) || e.Target < 0 || e.Target >= len(p.Nodes) {
			return nil, fmt.Errorf("edge %d -> %d out of range", e.Source, e.Target)
		}
	}
	return &p, nil
}
