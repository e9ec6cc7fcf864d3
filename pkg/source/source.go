// Package source loads lineage graphs by name from where they are stored.
//
// [FileSource] reads JSON and YAML graph files from a directory;
// [MongoSource] reads graph documents from a MongoDB collection. Both
// validate what they return with [graph.Validate].
package source

import (
	"context"

	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Source provides named graphs.
type Source interface {
	// Graph returns the graph stored under name. A missing graph is a
	// NOT_FOUND error.
	Graph(ctx context.Context, name string) (*graph.Graph, error)

	// Names lists the stored graphs in sorted order.
	Names(ctx context.Context) ([]string, error)

	Close(ctx context.Context) error
}
