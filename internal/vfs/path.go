package vfs

import "strings"

// Normalize resolves "." and ".." components of an absolute POSIX path and
// strips a trailing slash (except for root itself). It never allows ".."
// to escape above root: an excess ".." at the top is simply dropped, the
// same way a real root filesystem behaves.
//
// p must begin with "/"; callers that accept relative input are
// responsible for joining against a base directory first.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			// skip
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

// Split returns the normalized parent directory and base name of p.
// Split("/") returns ("/", "").
func Split(p string) (dir, name string) {
	p = Normalize(p)
	if p == "/" {
		return "/", ""
	}
	idx := strings.LastIndexByte(p, '/')
	name = p[idx+1:]
	if idx == 0 {
		dir = "/"
	} else {
		dir = p[:idx]
	}
	return dir, name
}

// Join joins a normalized base path with a sub-path, always producing a
// normalized absolute path.
func Join(base, sub string) string {
	base = Normalize(base)
	if sub == "" {
		return base
	}
	if base == "/" {
		return Normalize("/" + sub)
	}
	return Normalize(base + "/" + sub)
}

// Segments returns the non-empty path components of a normalized path.
func Segments(p string) []string {
	p = Normalize(p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// HasPrefix reports whether path p falls under the prefix directory
// (which itself need not exist); both are normalized first. The root
// prefix "/" matches everything.
func HasPrefix(p, prefix string) bool {
	p = Normalize(p)
	prefix = Normalize(prefix)
	if prefix == "/" {
		return true
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// Rel returns the sub-path of p relative to prefix, for handing to a
// virtual or mount provider. Assumes HasPrefix(p, prefix).
func Rel(p, prefix string) string {
	p = Normalize(p)
	prefix = Normalize(prefix)
	if prefix == "/" {
		if p == "/" {
			return "/"
		}
		return p
	}
	if p == prefix {
		return "/"
	}
	return p[len(prefix):]
}
