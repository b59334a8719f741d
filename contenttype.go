package assetmap

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is returned for keys with an unrecognized extension.
const DefaultContentType = "application/octet-stream"

// extensionTypes maps lowercase file extensions to MIME content types.
var extensionTypes = map[string]string{
	".avif":        "image/avif",
	".bmp":         "image/bmp",
	".css":         "text/css",
	".csv":         "text/csv",
	".eot":         "application/vnd.ms-fontobject",
	".gif":         "image/gif",
	".gz":          "application/gzip",
	".htm":         "text/html",
	".html":        "text/html",
	".ico":         "image/x-icon",
	".jpeg":        "image/jpeg",
	".jpg":         "image/jpeg",
	".js":          "text/javascript",
	".json":        "application/json",
	".jsonld":      "application/ld+json",
	".map":         "application/json",
	".md":          "text/markdown",
	".mjs":         "text/javascript",
	".mp3":         "audio/mpeg",
	".mp4":         "video/mp4",
	".ogg":         "audio/ogg",
	".otf":         "font/otf",
	".pdf":         "application/pdf",
	".png":         "image/png",
	".svg":         "image/svg+xml",
	".tar":         "application/x-tar",
	".tif":         "image/tiff",
	".tiff":        "image/tiff",
	".toml":        "application/toml",
	".ttf":         "font/ttf",
	".txt":         "text/plain",
	".wasm":        "application/wasm",
	".wav":         "audio/wav",
	".webm":        "video/webm",
	".webmanifest": "application/manifest+json",
	".webp":        "image/webp",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".xml":         "text/xml",
	".yaml":        "application/yaml",
	".yml":         "application/yaml",
	".zip":         "application/zip",
}

// ContentType returns the MIME type for a logical key from its extension,
// or DefaultContentType.
func ContentType(key string) string {
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return DefaultContentType
}

// contentTypeResolver applies per-build overrides on top of the default
// table and, when enabled, sniffs files whose extension is unknown.
type contentTypeResolver struct {
	overrides map[string]string // lowercase extension -> type
	sniff     bool
}

// resolve maps a logical key to a content type. Pure and deterministic.
func (r contentTypeResolver) resolve(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := r.overrides[ext]; ok {
		return ct
	}
	return ContentType(key)
}

// resolveFile resolves the content type for an entry. Only uncompressed
// files are sniffed: the bytes of a compressed file say nothing about the
// logical asset.
func (r contentTypeResolver) resolveFile(key, absPath string, compressed bool) (string, error) {
	ct := r.resolve(key)
	if ct != DefaultContentType || !r.sniff || compressed {
		return ct, nil
	}
	m, err := mimetype.DetectFile(absPath)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}
