package expand

import (
	"sort"
	"strings"

	"github.com/lifo-sh/lifo/internal/vfs"
)

// globChars reports whether s contains any byte that makes it a glob
// pattern rather than a literal path.
func globChars(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// globMatches expands a glob pattern (an absolute or cwd-relative path
// whose final components may contain */?/[...]) against the VFS,
// returning the sorted set of matching paths. ok is false when the
// word contains no glob metacharacters at all, in which case the
// caller leaves it untouched; a metacharacter word with zero matches
// still returns ok == true with the literal word as its single
// result, so an unmatched pattern stays on the command line as typed.
func globMatches(v *vfs.VFS, cwd, pattern string) (matches []string, ok bool) {
	if !globChars(pattern) {
		return nil, false
	}

	abs := pattern
	if !strings.HasPrefix(abs, "/") {
		abs = vfs.Join(cwd, pattern)
	}
	segs := vfs.Segments(abs)

	results := globWalk(v, "/", segs)
	if len(results) == 0 {
		return []string{pattern}, true
	}
	sort.Strings(results)
	return results, true
}

// globWalk matches the remaining pattern segments against dir's
// children, recursing one path component at a time.
func globWalk(v *vfs.VFS, dir string, segs []string) []string {
	if len(segs) == 0 {
		return []string{dir}
	}
	seg, rest := segs[0], segs[1:]

	if !globChars(seg) {
		child := vfs.Join(dir, seg)
		if !v.Exists(child) {
			return nil
		}
		return globWalk(v, child, rest)
	}

	names, err := v.Readdir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(seg, ".") {
			continue
		}
		if !GlobMatch(seg, name) {
			continue
		}
		out = append(out, globWalk(v, vfs.Join(dir, name), rest)...)
	}
	return out
}

// GlobMatch reports whether pattern matches name byte-for-byte using
// shell glob semantics: `*` matches zero or more non-'/' characters,
// `?` matches exactly one non-'/' character, and `[...]`/`[!...]`
// match a single-character class with `-` ranges. Matching is
// case-sensitive.
func GlobMatch(pattern, name string) bool {
	return globMatch(pattern, name)
}

func globMatch(pattern, name string) bool {
	// Classic backtracking glob matcher: track the most recent '*' in
	// the pattern and the name position it last matched from, so a
	// failed match further on can retry with one more character
	// consumed by the star.
	pi, ni := 0, 0
	starPi, starNi := -1, -1

	for ni < len(name) {
		if pi < len(pattern) && pattern[pi] == '*' {
			starPi = pi
			starNi = ni
			pi++
			continue
		}
		if pi < len(pattern) && pattern[pi] == '?' && name[ni] != '/' {
			pi++
			ni++
			continue
		}
		if pi < len(pattern) && pattern[pi] == '[' {
			end, matched := matchClass(pattern[pi:], name[ni])
			if end > 0 {
				if matched {
					pi += end
					ni++
					continue
				}
			} else if name[ni] == '[' {
				pi++
				ni++
				continue
			}
		} else if pi < len(pattern) && pattern[pi] == name[ni] {
			pi++
			ni++
			continue
		}
		if starPi >= 0 && name[starNi] != '/' {
			starNi++
			ni = starNi
			pi = starPi + 1
			continue
		}
		return false
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// matchClass parses a `[...]`/`[!...]` character class starting at
// s[0] == '['. It returns the length of the class (including both
// brackets) and whether b matches it. A length of 0 means s is not a
// well-formed class (no closing ']'), and the caller should treat '['
// as a literal character instead.
func matchClass(s string, b byte) (length int, matched bool) {
	i := 1
	negate := false
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		negate = true
		i++
	}
	start := i
	found := false
	for i < len(s) && s[i] != ']' {
		if i+2 < len(s) && s[i+1] == '-' && s[i+2] != ']' {
			if s[i] <= b && b <= s[i+2] {
				found = true
			}
			i += 3
			continue
		}
		if s[i] == b {
			found = true
		}
		i++
	}
	if i >= len(s) || s[i] != ']' || i == start {
		return 0, false
	}
	if negate {
		found = !found
	}
	return i + 1, found
}
