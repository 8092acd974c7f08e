package runner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/pattern"
)

// ExpandGlobs expands each argument as a shell glob against the
// filesystem. An argument without glob metacharacters passes through
// verbatim, so a later open() failure can be reported; a glob that
// matches nothing expands to nothing.
func ExpandGlobs(args []string) []string {
	var paths []string
	for _, arg := range args {
		if !pattern.HasMeta(arg, 0) {
			paths = append(paths, arg)
			continue
		}
		matches := expand(arg)
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths
}

func expand(glob string) []string {
	segments := strings.Split(filepath.ToSlash(glob), "/")
	roots := []string{"."}
	if segments[0] == "" { // absolute path
		roots = []string{"/"}
		segments = segments[1:]
	}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		var next []string
		for _, root := range roots {
			next = append(next, expandSegment(root, seg)...)
		}
		roots = next
		if len(roots) == 0 {
			return nil
		}
	}
	for i, p := range roots {
		roots[i] = filepath.Clean(p)
	}
	return roots
}

func expandSegment(dir, seg string) []string {
	if !pattern.HasMeta(seg, 0) {
		p := join(dir, seg)
		if _, err := os.Lstat(p); err != nil {
			return nil
		}
		return []string{p}
	}
	expr, err := pattern.Regexp(seg, pattern.Filenames|pattern.EntireString)
	if err != nil {
		p := join(dir, seg)
		if _, err := os.Lstat(p); err != nil {
			return nil
		}
		return []string{p}
	}
	rx := regexp.MustCompile(expr)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(seg, ".") {
			continue
		}
		if rx.MatchString(name) {
			matches = append(matches, join(dir, name))
		}
	}
	return matches
}

func join(dir, name string) string {
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}
