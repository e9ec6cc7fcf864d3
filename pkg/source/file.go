package source

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
)

var graphExts = []string{".json", ".yaml", ".yml"}

// FileSource serves the graph files of one directory. A graph's name is
// its file name without extension.
type FileSource struct {
	dir string
}

// NewFileSource creates a source over dir, which must exist.
func NewFileSource(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "source dir %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return &FileSource{dir: dir}, nil
}

// Graph implements [Source].
func (s *FileSource) Graph(_ context.Context, name string) (*graph.Graph, error) {
	if err := errors.ValidatePath(name); err != nil {
		return nil, err
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "graph name %q must not contain a path separator", name)
	}
	for _, ext := range graphExts {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return graph.ReadGraphFile(path)
	}
	return nil, errors.New(errors.ErrCodeNotFound, "graph %q not found in %s", name, s.dir)
}

// Names implements [Source].
func (s *FileSource) Names(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !slices.Contains(graphExts, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Close implements [Source].
func (s *FileSource) Close(context.Context) error { return nil }

var _ Source = (*FileSource)(nil)
