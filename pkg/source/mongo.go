package source

import (
	"context"
	stderrors "errors"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
)

// MongoOptions configure [NewMongoSource].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoSource reads graphs from a collection of documents shaped like
//
//	{"name": "orders", "nodes": [...], "edges": [...], "direction": "right"}
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// document is the stored form of a named graph.
type document struct {
	Name        string `bson:"name"`
	graph.Graph `bson:",inline"`
}

// NewMongoSource connects and pings the server.
func NewMongoSource(ctx context.Context, opts MongoOptions) (*MongoSource, error) {
	if opts.URI == "" || opts.Database == "" || opts.Collection == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo source needs a uri, database and collection")
	}
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &MongoSource{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Graph implements [Source].
func (s *MongoSource) Graph(ctx context.Context, name string) (*graph.Graph, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "graph %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find graph %q", name)
	}
	g := doc.Graph
	normalizeNodes(g.Nodes)
	if err := graph.Validate(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Put stores g under name, replacing any earlier version.
func (s *MongoSource) Put(ctx context.Context, name string, g *graph.Graph) error {
	if err := graph.Validate(g); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"name": name}, document{Name: name, Graph: *g},
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store graph %q", name)
	}
	return nil
}

// Delete removes the graph stored under name.
func (s *MongoSource) Delete(ctx context.Context, name string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	return err
}

// Names implements [Source].
func (s *MongoSource) Names(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "name", bson.M{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list graphs")
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Close implements [Source].
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// normalizeNodes converts decoded BSON payloads to the plain maps and
// slices that JSON and YAML input produce, so renderers see one shape.
func normalizeNodes(nodes []graph.Node) {
	for i := range nodes {
		nodes[i].Data = normalize(nodes[i].Data)
		normalizeNodes(nodes[i].Children)
	}
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = normalize(x)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	default:
		return v
	}
}

var _ Source = (*MongoSource)(nil)
