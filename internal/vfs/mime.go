package vfs

import "strings"

// mimeTable is the fixed, closed extension → MIME type table. Unknown
// extensions resolve to application/octet-stream. ~70 entries.
var mimeTable = map[string]string{
	// text
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"xml":  "text/xml",
	"ini":  "text/plain",
	"cfg":  "text/plain",
	"log":  "text/plain",
	"yml":  "text/yaml",
	"yaml": "text/yaml",
	"toml": "text/plain",

	// source / script, treated as text
	"js":   "text/javascript",
	"mjs":  "text/javascript",
	"ts":   "text/typescript",
	"jsx":  "text/jsx",
	"tsx":  "text/tsx",
	"py":   "text/x-python",
	"go":   "text/x-go",
	"c":    "text/x-c",
	"h":    "text/x-c",
	"cpp":  "text/x-c++",
	"rs":   "text/x-rust",
	"java": "text/x-java",
	"rb":   "text/x-ruby",
	"php":  "text/x-php",
	"sh":   "text/x-sh",
	"bash": "text/x-sh",
	"pl":   "text/x-perl",
	"sql":  "text/x-sql",

	// application/json is special-cased into the "text" category
	"json": "application/json",

	// images
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"ico":  "image/x-icon",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"avif": "image/avif",

	// audio
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",

	// video
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"m4v":  "video/x-m4v",

	// archives
	"zip": "application/zip",
	"tar": "application/x-tar",
	"gz":  "application/gzip",
	"tgz": "application/gzip",
	"bz2": "application/x-bzip2",
	"7z":  "application/x-7z-compressed",
	"rar": "application/vnd.rar",

	// fonts / binary-ish
	"woff":   "font/woff",
	"woff2":  "font/woff2",
	"ttf":    "font/ttf",
	"otf":    "font/otf",
	"pdf":    "application/pdf",
	"wasm":   "application/wasm",
	"exe":    "application/x-msdownload",
	"so":     "application/x-sharedlib",
	"bin":    "application/octet-stream",
	"dat":    "application/octet-stream",
	"db":     "application/x-sqlite3",
	"sqlite": "application/x-sqlite3",
}

const mimeOctetStream = "application/octet-stream"

// DetectMime maps a file name's extension to a MIME type via the fixed
// table, falling back to application/octet-stream.
func DetectMime(name string) string {
	ext := extOf(name)
	if ext == "" {
		return mimeOctetStream
	}
	if mt, ok := mimeTable[ext]; ok {
		return mt
	}
	return mimeOctetStream
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// Category classifies a MIME type into a closed category set.
func Category(mime string) string {
	switch {
	case mime == "application/json", strings.HasPrefix(mime, "text/"):
		return "text"
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case isArchiveMime(mime):
		return "archive"
	default:
		return "binary"
	}
}

func isArchiveMime(mime string) bool {
	switch mime {
	case "application/zip", "application/x-tar", "application/gzip",
		"application/x-bzip2", "application/x-7z-compressed", "application/vnd.rar":
		return true
	default:
		return false
	}
}
