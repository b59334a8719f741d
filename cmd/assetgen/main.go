// Command assetgen writes a Go source file embedding a directory of static
// assets behind a minimal perfect hash table.
//
// Usage:
//
//	assetgen generate [dir] [-o file] [-p package] [flags]
//	assetgen list [dir] [flags]
//	assetgen version
//
// Settings may also come from assetgen.yaml in the project root and from
// ASSETGEN_ROOT, ASSETGEN_CONFIG and ASSETGEN_LOG_LEVEL. Flags win over the
// file, the file wins over the environment.
package main

import "github.com/tamirms/assetmap/internal/cli"

func main() {
	cli.Execute()
}
