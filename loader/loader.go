// Package loader resolves Include directives into a single spliced
// directive stream, the collaborator spec.md §6 describes: "parsing
// may yield Include(path) directives; the loader resolves them
// relative to the including file, reads the file, re-parses, and
// splices the resulting directives into the stream in source order."
//
// The actual text parser is an external collaborator (out of scope for
// this module, per spec.md §1); Load is parameterized over a Parser
// function so it never needs to know the source grammar: the loader
// only orchestrates reading, parsing and include-splicing, and leaves
// lexing to the parser.
package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/avaro-team/avaro/ast"
)

// FileReader abstracts file access so the core never calls os directly;
// the default implementation (OSFileReader) wraps os.ReadFile.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Parser turns raw source bytes into a directive stream. Supplied by
// the caller (the external parser package); the loader only needs the
// resulting *ast.AST and the Include directives within it.
type Parser func(path string, source []byte) (*ast.AST, error)

// IncludeCycle is fatal per spec.md §7 ("Fatal: ... include cycles.
// Abort the build; surface to caller.") — unlike LedgerError, Load
// returns it directly rather than accumulating it.
type IncludeCycle struct {
	Path string
}

func (e *IncludeCycle) Error() string {
	return fmt.Sprintf("include cycle detected at %s", e.Path)
}

// Load reads rootPath, parses it, and recursively resolves every
// Include directive it (or its includes) contains, splicing the result
// into a single *ast.AST in source order. Independent include subtrees
// are resolved concurrently, bounded by a worker limit, purely as a
// throughput optimization — see resolveConcurrently — since directive
// ordering is reconstructed deterministically afterward regardless of
// which goroutine finished first.
func Load(ctx context.Context, rootPath string, read FileReader, parse Parser) (*ast.AST, error) {
	visited := map[string]bool{}
	return loadFile(ctx, rootPath, read, parse, visited)
}

func loadFile(ctx context.Context, path string, read FileReader, parse Parser, visited map[string]bool) (*ast.AST, error) {
	canonical := filepath.Clean(path)
	if visited[canonical] {
		return nil, &IncludeCycle{Path: canonical}
	}
	visited[canonical] = true

	source, err := read.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", canonical, err)
	}

	tree, err := parse(canonical, source)
	if err != nil {
		return nil, fmt.Errorf("loader: parsing %s: %w", canonical, err)
	}

	var includes []*ast.Include
	for _, d := range tree.Directives {
		if inc, ok := d.(*ast.Include); ok {
			includes = append(includes, inc)
		}
	}
	if len(includes) == 0 {
		return tree, nil
	}

	resolved, err := resolveConcurrently(ctx, filepath.Dir(canonical), includes, read, parse, visited)
	if err != nil {
		return nil, err
	}

	out := &ast.AST{Options: tree.Options}
	for _, d := range tree.Directives {
		if _, ok := d.(*ast.Include); ok {
			continue // spliced in below, in the order includes appeared
		}
		out.Add(d)
	}
	for _, sub := range resolved {
		for _, d := range sub.Directives {
			out.Add(d)
		}
		out.Options = append(out.Options, sub.Options...)
	}
	out.SortDirectives()

	return out, nil
}

// resolveConcurrently loads each include relative to dir. A visited
// set shared across goroutines would race, so no goroutine shares one:
// siblings are resolved concurrently, and each gets a private copy of
// the visited set seeded from the parent's, which its own recursive
// descent (itself resolving nested includes the same way) extends.
func resolveConcurrently(ctx context.Context, dir string, includes []*ast.Include, read FileReader, parse Parser, visited map[string]bool) ([]*ast.AST, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	results := make([]*ast.AST, len(includes))
	for i, inc := range includes {
		i, inc := i, inc
		childVisited := make(map[string]bool, len(visited))
		for k := range visited {
			childVisited[k] = true
		}

		g.Go(func() error {
			resolvedPath := inc.Path
			if !filepath.IsAbs(resolvedPath) {
				resolvedPath = filepath.Join(dir, resolvedPath)
			}
			tree, err := loadFile(ctx, resolvedPath, read, parse, childVisited)
			if err != nil {
				return err
			}
			results[i] = tree
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
