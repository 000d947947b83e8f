package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
)

// words converts a positional-token slice to plain strings, discarding the
// quoted bit (most commands only care about the quoted bit during
// globbing, which has already run by dispatch time).
func words(toks []shell.Token) []string {
	return shell.Words(toks)
}

func flagStr(flags map[string]any, name string) (string, bool) {
	v, ok := flags[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func flagBool(flags map[string]any, name string) bool {
	_, ok := flags[name]
	return ok
}

// parseModeArg parses s as an octal mode ("755", "0644"), with an optional
// "0o" prefix, and keeps only the low nine permission bits. A string that
// is not octal or does not fit in 16 bits is rejected with ErrInvalidMode.
func parseModeArg(s string) (uint16, error) {
	s = strings.TrimPrefix(s, "0o")
	v, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return 0, vfs.ErrInvalidMode
	}
	return uint16(v) & 0o777, nil
}

func modeString(kind vfs.Kind, mode uint16) string {
	var b strings.Builder
	switch kind {
	case vfs.KindDirectory:
		b.WriteByte('d')
	case vfs.KindSymlink:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}
	bits := []struct {
		mask uint16
		ch   byte
	}{
		{0o400, 'r'}, {0o200, 'w'}, {0o100, 'x'},
		{0o040, 'r'}, {0o020, 'w'}, {0o010, 'x'},
		{0o004, 'r'}, {0o002, 'w'}, {0o001, 'x'},
	}
	for _, bit := range bits {
		if mode&bit.mask != 0 {
			b.WriteByte(bit.ch)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// argOrDot returns the text of the first positional token, or "." when
// there is none.
func argOrDot(pos []shell.Token) string {
	if len(pos) == 0 {
		return "."
	}
	return pos[0].Text
}

func errResult(err error) effect.Result {
	if werr, ok := err.(*vfs.WardError); ok {
		return effect.Fail(werr.Error())
	}
	switch err {
	case vfs.ErrFileNotFound:
		return effect.FailWithSuggestion(err.Error(), "check the path with 'ls' or 'pwd'")
	case vfs.ErrPermissionDenied:
		return effect.FailWithSuggestion(err.Error(), "check ownership and mode with 'ls -l'")
	case vfs.ErrFileExists:
		return effect.FailWithSuggestion(err.Error(), "remove the existing entry first or choose another name")
	case vfs.ErrNotADirectory, vfs.ErrIsADirectory, vfs.ErrNotEmpty, vfs.ErrInvalidMode, vfs.ErrCycleDetected:
		return effect.Fail(err.Error())
	default:
		return effect.Fail(err.Error())
	}
}

func formatMtime(t time.Time) string {
	return t.Format("Jan _2 15:04")
}

// readFileText fetches a file's full content as a string, resolving
// symlinks; non-files fail with ErrIsADirectory/NotADirectory as
// appropriate by returning the raw vfs error.
func readFileText(sys *System, path string) (string, error) {
	node, err := sys.FS.GetNode(path, true)
	if err != nil {
		return "", err
	}
	if node.Kind == vfs.KindDirectory {
		return "", vfs.ErrIsADirectory
	}
	return string(node.Content), nil
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// splitLines splits on "\n" and drops one trailing empty element if the
// text ended in a newline, matching how `cat`/pipelines conventionally
// treat line-oriented stdin.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func inputText(cc shell.CommandContext, pos []shell.Token, sys *System, pathIndex int) (string, error) {
	if len(pos) > pathIndex {
		return readFileText(sys, pos[pathIndex].Text)
	}
	return cc.Stdin, nil
}

func formatOutput(out string) string {
	return strings.TrimRight(out, "\n")
}

func mustInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func pidArg(s string) (int, bool) {
	s = strings.TrimPrefix(s, "%")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func fmtInt(n int) string { return fmt.Sprintf("%d", n) }
