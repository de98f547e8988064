package constants

import "strings"

// Format is the coarse artifact type the pipeline dispatches on.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
	TEXT  Format = "TEXT"
)

// DefaultAllowedExtensions holds the default permitted upload suffixes.
var DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "heic", "heif", "pdf", "txt"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a Format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "gif", "heic", "heif":
		return IMAGE
	case "txt":
		return TEXT
	default:
		return ""
	}
}

// IsHEICExt reports whether the extension names an HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}
