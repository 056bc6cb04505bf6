package domain

import (
	"path"
	"strings"
)

// NormalizePath converts p into the canonical coordinate space: slash
// separated and relative to root. Backslashes become slashes, absolute paths
// under root lose the root prefix, and the result is cleaned. The repository
// root itself normalises to "".
//
// Absolute paths outside root are returned cleaned but still absolute, so
// they can never fall under a relative base directory.
func NormalizePath(root, p string) string {
	p = toSlash(strings.TrimRight(p, "\r\n"))
	if p == "" {
		return ""
	}

	if isAbs(p) {
		r := toSlash(root)
		if r == "" {
			return path.Clean(p)
		}
		r = strings.TrimRight(path.Clean(r), "/")
		cleaned := path.Clean(p)
		switch {
		case strings.EqualFold(cleaned, r):
			return ""
		case hasFoldPrefix(cleaned, r+"/"):
			p = cleaned[len(r)+1:]
		default:
			return cleaned
		}
	}

	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

// SplitLines splits newline-delimited command output into paths, dropping
// blank lines and carriage returns.
func SplitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseExcludeList parses a comma-separated list of directory names.
// Entries are trimmed and empty entries dropped. Trailing separators are
// removed so "web/" and "web" exclude the same directory.
func ParseExcludeList(raw string) []string {
	var dirs []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		entry = strings.TrimRight(entry, `/\`)
		if entry == "" {
			continue
		}
		dirs = append(dirs, entry)
	}
	return dirs
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// isAbs treats both "/x" and Windows drive paths ("C:/x") as absolute.
func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' && isLetter(p[0])
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
