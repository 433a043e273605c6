package csharp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"mapcheck/internal/analyze"
)

// Extension is the file extension of C# sources.
const Extension = ".cs"

// skipDirs are build output and VCS directories never scanned by ReadDir.
var skipDirs = map[string]bool{
	"bin": true, "obj": true, ".git": true, ".vs": true, "node_modules": true,
}

// Source is one document handed to Parse.
type Source struct {
	Path string
	Text string
}

// parsed is a document with its syntax tree.
type parsed struct {
	path string
	src  []byte
	tree *sitter.Tree
}

// Parse parses the sources and builds their compilation. Types declared in
// any source are visible to the chains of every source.
func Parse(ctx context.Context, sources ...Source) (*analyze.Compilation, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(csharp.GetLanguage())

	files := make([]parsed, 0, len(sources))

	defer func() {
		for _, f := range files {
			f.tree.Close()
		}
	}()

	for _, s := range sources {
		src := []byte(s.Text)

		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.Path, err)
		}

		files = append(files, parsed{path: s.Path, src: src, tree: tree})
	}

	decls := newDeclarations()
	for _, f := range files {
		decls.collect(f)
	}

	comp := &analyze.Compilation{Graph: decls.graph()}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		comp.Documents = append(comp.Documents, &analyze.Document{
			Path:   f.path,
			Text:   string(f.src),
			Chains: chainsOf(f, decls),
		})
	}

	return comp, nil
}

// ReadDir reads every C# file below dir, skipping build output directories
// and paths matched by dir/.gitignore. Source paths are relative to dir, with
// forward slashes, in walk order.
func ReadDir(dir string) ([]Source, error) {
	var sources []Source

	gi := loadGitignore(dir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == dir {
				return nil
			}

			if skipDirs[d.Name()] || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), Extension) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		sources = append(sources, Source{Path: rel, Text: string(data)})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	return sources, nil
}

// loadGitignore compiles dir/.gitignore, or returns nil when there is none.
func loadGitignore(dir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}

	return gi
}

// ReadFiles reads the given C# files. Source paths are kept as given.
func ReadFiles(paths ...string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}

		sources = append(sources, Source{Path: p, Text: string(data)})
	}

	return sources, nil
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

// childOfType returns the first direct child with one of the given types.
func childOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}

	return nil
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(i))
	}

	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
