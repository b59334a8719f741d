// Package assetmap generates Go source files that embed a directory of
// static assets behind a minimal perfect hash table.
//
// The generated file declares one table.Table as a composite literal of
// constants. Lookups hash the key once, read one pilot byte and compare one
// string; no map is built and no initialization code runs.
//
// # Basic Usage
//
// Generating a table, typically from a go:generate directive through
// cmd/assetgen:
//
//	res, err := assetmap.Generate(ctx, assetmap.Config{
//	    Dir:    "web",
//	    Output: "assets_gen.go",
//	}, assetmap.WithPackage("server"), assetmap.WithVarName("Static"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d assets, %d bytes\n", res.Assets, res.Bytes)
//
// Serving from the generated table:
//
//	if a, ok := Static.Lookup("css/site.css"); ok {
//	    w.Header().Set("Content-Type", a.ContentType)
//	    if a.Compressed {
//	        w.Header().Set("Content-Encoding", "br")
//	    }
//	    w.Write(a.Bytes())
//	}
//
// # Keys
//
// A key is the file path relative to the assets directory with "/"
// separators. A file ending in a compression marker (".br" by default) is
// stored under its name without the marker and flagged Compressed. When two
// files map to the same key, the one whose relative path sorts last wins,
// so "site.css.br" replaces "site.css". WithStrictKeys turns that into an
// error.
//
// # Package Structure
//
//   - Entry point: generate.go (Config, Generate, Scan)
//   - Builder: builder.go (NewBuilder, Add, Finish), builder_options.go
//   - Walk: walk.go (symlink policy, excludes), key.go (key normalization)
//   - Content types: contenttype.go
//   - Output: emit.go (templates), payload.go (mmap reads), source_writer.go
//   - Runtime: table/ (Table, Asset, Lookup)
//   - Solver: internal/ptrhash/
//   - Platform: fadvise_*.go, fallocate_*.go, prefault_*.go
package assetmap
