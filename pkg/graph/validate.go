package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/lineagraph/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints and that node ids are unique across the
// whole tree. Edges pointing at unknown nodes are allowed; they are dropped
// when edges are adjusted.
func Validate(g *Graph) error {
	if err := structValidator().Struct(g); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s", describe(err))
	}

	seen := make(map[string]bool, g.NodeCount())
	var walk func(nodes []Node) error
	walk = func(nodes []Node) error {
		for i := range nodes {
			id := nodes[i].ID
			if err := errors.ValidateNodeID(id); err != nil {
				return err
			}
			if seen[id] {
				return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", id)
			}
			seen[id] = true
			if err := walk(nodes[i].Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.Nodes); err != nil {
		return err
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if edgeIDs[e.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true
	}
	return nil
}

// describe flattens validator errors into one line.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
