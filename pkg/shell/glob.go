package shell

import (
	"path"
	"sort"
	"strings"

	"github.com/aedmark/shellos/pkg/vfs"
)

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// ExpandGlobs applies shell glob semantics to every unquoted token
// containing a glob metacharacter, matching against the listing of its
// parent directory; a token with no match is retained literally, per
// spec.md §4.2.
func ExpandGlobs(fs *vfs.FS, actor vfs.Actor, cwd string, tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Quoted || !hasGlobMeta(tok.Text) {
			out = append(out, tok)
			continue
		}
		matches := expandOne(fs, actor, cwd, tok.Text)
		if len(matches) == 0 {
			out = append(out, tok)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, Token{Text: m})
		}
	}
	return out
}

// expandOne resolves a single glob pattern component-by-component against
// the VFS tree, starting from cwd for relative patterns.
func expandOne(fs *vfs.FS, actor vfs.Actor, cwd, pattern string) []string {
	base := cwd
	rel := pattern
	if strings.HasPrefix(pattern, "/") {
		base = "/"
		rel = strings.TrimPrefix(pattern, "/")
	}
	parts := strings.Split(rel, "/")
	return globWalk(fs, actor, base, parts)
}

func globWalk(fs *vfs.FS, actor vfs.Actor, dir string, remaining []string) []string {
	if len(remaining) == 0 {
		return []string{dir}
	}
	component := remaining[0]
	rest := remaining[1:]

	if !hasGlobMeta(component) {
		next := path.Join(dir, component)
		if len(rest) == 0 {
			if _, err := fs.GetNode(next, true); err != nil {
				return nil
			}
			return []string{next}
		}
		return globWalk(fs, actor, next, rest)
	}

	names, err := fs.ListChildren(dir, actor)
	if err != nil {
		return nil
	}
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(component, ".") {
			continue
		}
		ok, mErr := path.Match(component, name)
		if mErr != nil || !ok {
			continue
		}
		next := path.Join(dir, name)
		if len(rest) == 0 {
			matches = append(matches, next)
		} else {
			matches = append(matches, globWalk(fs, actor, next, rest)...)
		}
	}
	return matches
}
