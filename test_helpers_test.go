package assetmap

import (
	"bytes"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tamirms/assetmap/table"
)

// writeTree creates files under dir. Keys are slash-separated relative
// paths; parent directories are created as needed.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// generateSource runs Generate over dir and returns the generated source.
func generateSource(t *testing.T, dir string, opts ...BuildOption) ([]byte, *Result) {
	t.Helper()
	var buf bytes.Buffer
	res, err := Generate(context.Background(), Config{Dir: dir, Writer: &buf}, opts...)
	if err != nil {
		t.Fatalf("Generate(%s): %v", dir, err)
	}
	return buf.Bytes(), res
}

// generateTable runs Generate over dir and loads the result back into a
// table.Table by parsing the generated source.
func generateTable(t *testing.T, dir string, opts ...BuildOption) *table.Table {
	t.Helper()
	src, _ := generateSource(t, dir, opts...)
	return parseTable(t, src, "Assets")
}

// parseTable reads the composite literal of varName from generated
// source. It understands exactly the shapes the generator emits.
func parseTable(t *testing.T, src []byte, varName string) *table.Table {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v", err)
	}

	consts := make(map[string]string)
	var lit *ast.CompositeLit
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || (gd.Tok != token.CONST && gd.Tok != token.VAR) {
			continue
		}
		for _, s := range gd.Specs {
			vs := s.(*ast.ValueSpec)
			if len(vs.Values) == 0 {
				continue
			}
			switch gd.Tok {
			case token.CONST:
				consts[vs.Names[0].Name] = unquote(t, vs.Values[0])
			case token.VAR:
				if vs.Names[0].Name == varName {
					lit = vs.Values[0].(*ast.UnaryExpr).X.(*ast.CompositeLit)
				}
			}
		}
	}
	if lit == nil {
		t.Fatalf("generated source has no var %s", varName)
	}

	tbl := &table.Table{}
	for _, elt := range lit.Elts {
		kv := elt.(*ast.KeyValueExpr)
		switch kv.Key.(*ast.Ident).Name {
		case "Hash":
			if kv.Value.(*ast.SelectorExpr).Sel.Name == "HashMurmur3" {
				tbl.Hash = table.HashMurmur3
			}
		case "Seed":
			tbl.Seed = parseUint(t, kv.Value)
		case "NumSlots":
			tbl.NumSlots = uint32(parseUint(t, kv.Value))
		case "Pilots":
			tbl.Pilots = unquote(t, kv.Value)
		case "Remap":
			for _, v := range kv.Value.(*ast.CompositeLit).Elts {
				tbl.Remap = append(tbl.Remap, uint32(parseUint(t, v)))
			}
		case "Assets":
			for _, row := range kv.Value.(*ast.CompositeLit).Elts {
				tbl.Assets = append(tbl.Assets, parseAsset(t, row.(*ast.CompositeLit), consts))
			}
		}
	}
	return tbl
}

func parseAsset(t *testing.T, lit *ast.CompositeLit, consts map[string]string) table.Asset {
	t.Helper()
	var a table.Asset
	for _, elt := range lit.Elts {
		kv := elt.(*ast.KeyValueExpr)
		switch kv.Key.(*ast.Ident).Name {
		case "Key":
			a.Key = unquote(t, kv.Value)
		case "Data":
			name := kv.Value.(*ast.Ident).Name
			data, ok := consts[name]
			if !ok {
				t.Fatalf("asset data %s is not a constant", name)
			}
			a.Data = data
		case "ContentType":
			a.ContentType = unquote(t, kv.Value)
		case "Compressed":
			a.Compressed = kv.Value.(*ast.Ident).Name == "true"
		case "Digest":
			a.Digest = parseUint(t, kv.Value)
		}
	}
	return a
}

func unquote(t *testing.T, e ast.Expr) string {
	t.Helper()
	s, err := strconv.Unquote(e.(*ast.BasicLit).Value)
	if err != nil {
		t.Fatalf("bad string literal: %v", err)
	}
	return s
}

func parseUint(t *testing.T, e ast.Expr) uint64 {
	t.Helper()
	v, err := strconv.ParseUint(e.(*ast.BasicLit).Value, 0, 64)
	if err != nil {
		t.Fatalf("bad integer literal: %v", err)
	}
	return v
}

// lookupOrFail returns the asset stored under key.
func lookupOrFail(t *testing.T, tbl *table.Table, key string) *table.Asset {
	t.Helper()
	a, ok := tbl.Lookup(key)
	if !ok {
		t.Fatalf("Lookup(%q) missed; table keys: %s", key, strings.Join(tbl.Keys(), ", "))
	}
	return a
}
