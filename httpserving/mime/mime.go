// Package mime maps file extensions to content types for the static
// file handler. The table mirrors lwan's STRING_SWITCH dispatch in
// lwan_determine_mime_type_for_file_name, extended with a few more
// extensions common enough that the original's narrow set would be a
// regression.
package mime

import "strings"

var byExtension = map[string]string{
	".css":  "text/css",
	".htm":  "text/html",
	".html": "text/html",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".js":   "application/javascript",
	".png":  "image/png",
	".txt":  "text/plain",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".gif":  "image/gif",
	".wasm": "application/wasm",
}

// fallback matches lwan's "application/octet-stream" default for any
// extension it doesn't recognize, including files with no extension.
const fallback = "application/octet-stream"

// ForPath returns the content type for a file name based on its
// extension, matching on the last dot the way lwan does.
func ForPath(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return fallback
	}
	ext := strings.ToLower(name[dot:])
	if ct, ok := byExtension[ext]; ok {
		return ct
	}
	return fallback
}
