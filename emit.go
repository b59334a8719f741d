package assetmap

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"text/template"

	"github.com/cespare/xxhash/v2"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/internal/encoding"
	"github.com/tamirms/assetmap/internal/ptrhash"
	"github.com/tamirms/assetmap/table"
)

// tablePackage is the import path generated files use for the runtime.
const tablePackage = "github.com/tamirms/assetmap/table"

// remapPerLine is the number of remap entries per generated line.
const remapPerLine = 16

// row is one asset in slot order.
type row struct {
	key         string
	contentType string
	compressed  bool
	source      string // absolute path of the file on disk
	embedPath   string // slash path relative to the output dir (EmbedDirective)
}

var headerTemplate = template.Must(template.New("header").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by assetgen{{if .Source}} from {{.Source}}{{end}}. DO NOT EDIT.
{{if .BuildTags}}
//go:build {{.BuildTags}}
{{end}}
package {{.Package}}

import (
{{- if .Directive}}
	_ "embed"
{{end}}
	{{quote .TablePackage}}
)

// {{.Var}} holds {{.Count}} embedded assets.
var {{.Var}} = &table.Table{
	Hash:     {{.Hash}},
	Seed:     {{printf "%#x" .Seed}},
	NumSlots: {{.NumSlots}},
	Pilots:   {{.Pilots}},
	Remap: []uint32{
{{.Remap}}
	},
	Assets: []table.Asset{
{{- range .Rows}}
		{
			Key:         {{quote .Key}},
			Data:        {{.Ident}},
			ContentType: {{quote .ContentType}},
{{- if .Compressed}}
			Compressed:  true,
{{- end}}
			Digest:      {{printf "%#016x" .Digest}},
		},
{{- end}}
	},
}
`))

type headerData struct {
	Source       string
	BuildTags    string
	Package      string
	Directive    bool
	TablePackage string
	Var          string
	Count        int
	Hash         string
	Seed         uint64
	NumSlots     uint32
	Pilots       string
	Remap        string
	Rows         []headerRow
}

type headerRow struct {
	Key         string
	Ident       string
	ContentType string
	Compressed  bool
	Digest      uint64
}

// hashIdent returns the generated-source name of h.
func hashIdent(h table.HashID) string {
	if h == table.HashMurmur3 {
		return "table.HashMurmur3"
	}
	return "table.HashXXH3"
}

// dataIdent names the declaration holding payload i. Lowercasing the first
// letter keeps it unexported for any table variable name.
func dataIdent(varName string, i int) string {
	b := []byte(varName)
	if c := b[0]; c >= 'A' && c <= 'Z' {
		b[0] = c + ('a' - 'A')
	}
	return string(b) + "Data" + strconv.Itoa(i)
}

// renderHeader renders and gofmts everything except the payload
// declarations: the file header, imports and the table literal.
func renderHeader(cfg *buildConfig, res *ptrhash.Result, rows []row, payloads []payload) ([]byte, error) {
	d := headerData{
		Source:       cfg.sourceLabel,
		BuildTags:    cfg.buildTags,
		Package:      cfg.packageName,
		Directive:    cfg.embedMode == EmbedDirective,
		TablePackage: tablePackage,
		Var:          cfg.varName,
		Count:        len(rows),
		Hash:         hashIdent(cfg.hash),
		Seed:         res.Seed,
		NumSlots:     res.NumSlots,
		Pilots:       string(encoding.AppendString(nil, res.Pilots)),
		Remap:        string(encoding.AppendUint32s(nil, res.Remap, remapPerLine, "\t\t")),
		Rows:         make([]headerRow, len(rows)),
	}
	for i, r := range rows {
		d.Rows[i] = headerRow{
			Key:         r.key,
			Ident:       dataIdent(cfg.varName, i),
			ContentType: r.contentType,
			Compressed:  r.compressed,
			Digest:      payloads[i].digest,
		}
	}

	var buf bytes.Buffer
	if err := headerTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render table: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated table: %w", err)
	}
	return src, nil
}

// payloadDecl returns the text of row i's declaration around its literal:
// the whole declaration in EmbedDirective mode, otherwise the parts before
// and after the quoted payload.
func payloadDecl(cfg *buildConfig, i int, r row) (prefix, suffix string) {
	ident := dataIdent(cfg.varName, i)
	if cfg.embedMode == EmbedDirective {
		return "\n//go:embed " + strconv.Quote(r.embedPath) + "\nvar " + ident + " string\n", ""
	}
	return "\nconst " + ident + " = ", "\n"
}

// payloadsLen returns the number of bytes writePayloads will write.
func payloadsLen(cfg *buildConfig, rows []row, payloads []payload) int64 {
	var n int64
	for i, r := range rows {
		prefix, suffix := payloadDecl(cfg, i, r)
		n += int64(len(prefix) + payloads[i].litLen + len(suffix))
	}
	return n
}

// writePayloads writes one declaration per row after the table literal.
// Literal declarations are already in gofmt form, so they bypass the
// formatter and large payloads are never parsed.
func writePayloads(w io.Writer, cfg *buildConfig, rows []row, payloads []payload) error {
	for i, r := range rows {
		prefix, suffix := payloadDecl(cfg, i, r)
		if _, err := io.WriteString(w, prefix); err != nil {
			return err
		}
		if cfg.embedMode == EmbedDirective {
			continue
		}
		if lit := payloads[i].literal; lit != nil {
			if _, err := w.Write(lit); err != nil {
				return err
			}
		} else if err := streamLiteral(w, r, payloads[i].digest); err != nil {
			return err
		}
		if _, err := io.WriteString(w, suffix); err != nil {
			return err
		}
	}
	return nil
}

// streamLiteral maps a row's file a second time and writes it as a literal.
// The digest guards against the file changing after the first read.
func streamLiteral(w io.Writer, r row, digest uint64) error {
	data, release, err := mapFile(r.source)
	if err != nil {
		return fmt.Errorf("load %q: %w", r.key, err)
	}
	if xxhash.Sum64(data) != digest {
		_ = release()
		return fmt.Errorf("%w: %s changed during generation", assetserrors.ErrUnreadableFile, r.source)
	}
	err = encoding.WriteString(w, data)
	if uerr := release(); err == nil && uerr != nil {
		err = fmt.Errorf("%w: unmap %s: %w", assetserrors.ErrUnreadableFile, r.source, uerr)
	}
	return err
}
