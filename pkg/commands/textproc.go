package commands

import (
	"fmt"
	"hash/crc32"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
)

func init() {
	Default.Register(Entry{Name: "cat", Help: "concatenate and print files",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "number", Short: 'n'}}}, Run: runCat})
	Default.Register(Entry{Name: "head", Help: "print the first lines of input",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "lines", Short: 'n', TakesValue: true}, {Name: "bytes", Short: 'c', TakesValue: true},
		}}, Run: runHead})
	Default.Register(Entry{Name: "tail", Help: "print the last lines of input",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "lines", Short: 'n', TakesValue: true}, {Name: "bytes", Short: 'c', TakesValue: true},
		}}, Run: runTail})
	Default.Register(Entry{Name: "sort", Help: "sort lines of input",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "numeric", Short: 'n'}, {Name: "reverse", Short: 'r'}, {Name: "unique", Short: 'u'},
		}}, Run: runSort})
	Default.Register(Entry{Name: "uniq", Help: "report or filter repeated lines",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "count", Short: 'c'}, {Name: "dup", Short: 'd'}, {Name: "unique", Short: 'u'},
		}}, Run: runUniq})
	Default.Register(Entry{Name: "wc", Help: "count lines, words, and bytes",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "lines", Short: 'l'}, {Name: "words", Short: 'w'}, {Name: "bytes", Short: 'c'},
		}}, Run: runWc})
	Default.Register(Entry{Name: "grep", Help: "print lines matching a pattern",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "invert", Short: 'v'}, {Name: "ignoreCase", Short: 'i'}, {Name: "lineNumber", Short: 'n'},
			{Name: "recursive", Short: 'r'}, {Name: "recursive", Short: 'R'}, {Name: "count", Short: 'c'},
		}}, Run: runGrep})
	Default.Register(Entry{Name: "awk", Help: "pattern-action text processing",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "fieldSep", Short: 'F', TakesValue: true}}},
		Run:    runAwk})
	Default.Register(Entry{Name: "sed", Help: "stream editor", Run: runSed})
	Default.Register(Entry{Name: "cut", Help: "extract columns from each line",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "chars", Short: 'c', TakesValue: true}, {Name: "fields", Short: 'f', TakesValue: true},
			{Name: "delim", Short: 'd', TakesValue: true},
		}}, Run: runCut})
	Default.Register(Entry{Name: "tr", Help: "translate or delete characters",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "complement", Short: 'c'}, {Name: "delete", Short: 'd'}, {Name: "squeeze", Short: 's'},
		}}, Run: runTr})
	Default.Register(Entry{Name: "nl", Help: "number lines of input", Run: runNl})
	Default.Register(Entry{Name: "comm", Help: "compare two sorted files",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "suppress1", Short: '1'}, {Name: "suppress2", Short: '2'}, {Name: "suppress3", Short: '3'},
		}}, Run: runComm})
	Default.Register(Entry{Name: "diff", Help: "compare two files line by line",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "unified", Short: 'u'}}}, Run: runDiff})
	Default.Register(Entry{Name: "csplit", Help: "split a file around context lines", Run: runCsplit})
	Default.Register(Entry{Name: "printf", Help: "format and print text", Run: runPrintf})
	Default.Register(Entry{Name: "cksum", Help: "print CRC-32 checksum and byte count", Run: runCksum})
}

func runCat(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	var all []string
	if len(pos) == 0 {
		all = splitLines(cc.Stdin)
	}
	for _, p := range pos {
		text, err := readFileText(sys, p.Text)
		if err != nil {
			return errResult(err)
		}
		all = append(all, splitLines(text)...)
	}
	if flagBool(flags, "number") {
		for i, line := range all {
			all[i] = fmt.Sprintf("%6d\t%s", i+1, line)
		}
	}
	return effect.Ok(joinLines(all))
}

func runHead(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	if n, ok := flagStr(flags, "bytes"); ok {
		count := mustInt(n, 0)
		if count > len(text) {
			count = len(text)
		}
		return effect.Ok(text[:count])
	}
	n := 10
	if v, ok := flagStr(flags, "lines"); ok {
		n = mustInt(v, 10)
	}
	lines := splitLines(text)
	if n > len(lines) {
		n = len(lines)
	}
	return effect.Ok(joinLines(lines[:n]))
}

func runTail(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	if n, ok := flagStr(flags, "bytes"); ok {
		count := mustInt(n, 0)
		if count > len(text) {
			count = len(text)
		}
		return effect.Ok(text[len(text)-count:])
	}
	n := 10
	if v, ok := flagStr(flags, "lines"); ok {
		n = mustInt(v, 10)
	}
	lines := splitLines(text)
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	return effect.Ok(joinLines(lines[start:]))
}

func runSort(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	lines := splitLines(text)
	numeric := flagBool(flags, "numeric")
	sort.SliceStable(lines, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			b, _ := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			return a < b
		}
		return lines[i] < lines[j]
	})
	if flagBool(flags, "reverse") {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	if flagBool(flags, "unique") {
		lines = dedupAdjacent(lines)
	}
	return effect.Ok(joinLines(lines))
}

func dedupAdjacent(lines []string) []string {
	var out []string
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			out = append(out, l)
		}
	}
	return out
}

func runUniq(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	lines := splitLines(text)
	type group struct {
		line  string
		count int
	}
	var groups []group
	for _, l := range lines {
		if len(groups) > 0 && groups[len(groups)-1].line == l {
			groups[len(groups)-1].count++
		} else {
			groups = append(groups, group{l, 1})
		}
	}
	count := flagBool(flags, "count")
	dupOnly := flagBool(flags, "dup")
	uniqueOnly := flagBool(flags, "unique")
	var out []string
	for _, g := range groups {
		if dupOnly && g.count < 2 {
			continue
		}
		if uniqueOnly && g.count > 1 {
			continue
		}
		if count {
			out = append(out, fmt.Sprintf("%7d %s", g.count, g.line))
		} else {
			out = append(out, g.line)
		}
	}
	return effect.Ok(joinLines(out))
}

func runWc(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	lines := len(splitLines(text))
	words := len(strings.Fields(text))
	bytes := len(text)

	only := flagBool(flags, "lines") || flagBool(flags, "words") || flagBool(flags, "bytes")
	if !only {
		return effect.Ok(fmt.Sprintf("%7d %7d %7d", lines, words, bytes))
	}
	var parts []string
	if flagBool(flags, "lines") {
		parts = append(parts, fmt.Sprintf("%7d", lines))
	}
	if flagBool(flags, "words") {
		parts = append(parts, fmt.Sprintf("%7d", words))
	}
	if flagBool(flags, "bytes") {
		parts = append(parts, fmt.Sprintf("%7d", bytes))
	}
	return effect.Ok(strings.Join(parts, " "))
}

func runGrep(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("grep: missing pattern")
	}
	pattern := pos[0].Text
	if flagBool(flags, "ignoreCase") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return effect.Fail("grep: invalid pattern: " + err.Error())
	}
	invert := flagBool(flags, "invert")
	showLineNumber := flagBool(flags, "lineNumber")

	grepText := func(text, label string, withLabel bool) []string {
		var out []string
		for i, line := range splitLines(text) {
			if re.MatchString(line) == !invert {
				switch {
				case withLabel && showLineNumber:
					out = append(out, fmt.Sprintf("%s:%d:%s", label, i+1, line))
				case withLabel:
					out = append(out, fmt.Sprintf("%s:%s", label, line))
				case showLineNumber:
					out = append(out, fmt.Sprintf("%d:%s", i+1, line))
				default:
					out = append(out, line)
				}
			}
		}
		return out
	}

	var out []string
	switch {
	case len(pos) == 1:
		out = grepText(cc.Stdin, "", false)
	case flagBool(flags, "recursive"):
		for _, p := range pos[1:] {
			walkFind(sys, cc, sys.FS.AbsPath(p.Text), func(path string, node *vfs.Node) {
				if node.Kind != vfs.KindFile {
					return
				}
				text, rErr := readFileText(sys, path)
				if rErr != nil {
					return
				}
				out = append(out, grepText(text, path, true)...)
			})
		}
	default:
		multi := len(pos) > 2
		for _, p := range pos[1:] {
			text, rErr := readFileText(sys, p.Text)
			if rErr != nil {
				continue
			}
			out = append(out, grepText(text, p.Text, multi)...)
		}
	}
	if flagBool(flags, "count") {
		return effect.Ok(fmt.Sprintf("%d", len(out)))
	}
	return effect.Ok(joinLines(out))
}

func runCut(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	delim := ","
	if d, ok := flagStr(flags, "delim"); ok {
		delim = d
	}
	var out []string
	for _, line := range splitLines(text) {
		if spec, ok := flagStr(flags, "fields"); ok {
			out = append(out, cutFields(line, delim, spec))
		} else if spec, ok := flagStr(flags, "chars"); ok {
			out = append(out, cutChars(line, spec))
		} else {
			out = append(out, line)
		}
	}
	return effect.Ok(joinLines(out))
}

func cutIndices(spec string, max int) []int {
	var idx []int
	for _, part := range strings.Split(spec, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo := mustInt(bounds[0], 1)
			hi := max
			if bounds[1] != "" {
				hi = mustInt(bounds[1], max)
			}
			for i := lo; i <= hi; i++ {
				idx = append(idx, i)
			}
		} else {
			idx = append(idx, mustInt(part, 0))
		}
	}
	return idx
}

func cutFields(line, delim, spec string) string {
	fields := strings.Split(line, delim)
	idx := cutIndices(spec, len(fields))
	var out []string
	for _, i := range idx {
		if i >= 1 && i <= len(fields) {
			out = append(out, fields[i-1])
		}
	}
	return strings.Join(out, delim)
}

func cutChars(line, spec string) string {
	runes := []rune(line)
	idx := cutIndices(spec, len(runes))
	var out []rune
	for _, i := range idx {
		if i >= 1 && i <= len(runes) {
			out = append(out, runes[i-1])
		}
	}
	return string(out)
}

func runTr(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("tr: missing operand")
	}
	set1 := expandTrSet(pos[0].Text)
	var set2 []rune
	if len(pos) > 1 {
		set2 = expandTrSet(pos[1].Text)
	}
	del := flagBool(flags, "delete")

	mapping := map[rune]rune{}
	inSet1 := map[rune]bool{}
	for i, r := range set1 {
		inSet1[r] = true
		if !del && len(set2) > 0 {
			target := set2[len(set2)-1]
			if i < len(set2) {
				target = set2[i]
			}
			mapping[r] = target
		}
	}

	var b strings.Builder
	var last rune = -1
	squeeze := flagBool(flags, "squeeze")
	for _, r := range cc.Stdin {
		if inSet1[r] {
			if del && len(set2) == 0 {
				continue
			}
			if out, ok := mapping[r]; ok {
				if squeeze && out == last {
					continue
				}
				b.WriteRune(out)
				last = out
				continue
			}
		}
		b.WriteRune(r)
		last = -1
	}
	return effect.Ok(b.String())
}

func expandTrSet(s string) []rune {
	var out []rune
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			for r := runes[i]; r <= runes[i+2]; r++ {
				out = append(out, r)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

func runNl(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	var out []string
	n := 1
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprintf("%6d\t%s", n, line))
		n++
	}
	return effect.Ok(joinLines(out))
}

func runComm(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) != 2 {
		return effect.Fail("comm: usage: comm <file1> <file2>")
	}
	t1, err := readFileText(sys, pos[0].Text)
	if err != nil {
		return errResult(err)
	}
	t2, err := readFileText(sys, pos[1].Text)
	if err != nil {
		return errResult(err)
	}
	l1, l2 := splitLines(t1), splitLines(t2)
	i, j := 0, 0
	only1, only2, only3 := flagBool(flags, "suppress1"), flagBool(flags, "suppress2"), flagBool(flags, "suppress3")
	var out []string
	for i < len(l1) && j < len(l2) {
		switch {
		case l1[i] < l2[j]:
			if !only1 {
				out = append(out, l1[i])
			}
			i++
		case l1[i] > l2[j]:
			if !only2 {
				out = append(out, "\t"+l2[j])
			}
			j++
		default:
			if !only3 {
				out = append(out, "\t\t"+l1[i])
			}
			i++
			j++
		}
	}
	for ; i < len(l1); i++ {
		if !only1 {
			out = append(out, l1[i])
		}
	}
	for ; j < len(l2); j++ {
		if !only2 {
			out = append(out, "\t"+l2[j])
		}
	}
	return effect.Ok(joinLines(out))
}

func runDiff(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) != 2 {
		return effect.Fail("diff: usage: diff <file1> <file2>")
	}
	t1, err := readFileText(sys, pos[0].Text)
	if err != nil {
		return errResult(err)
	}
	t2, err := readFileText(sys, pos[1].Text)
	if err != nil {
		return errResult(err)
	}
	l1, l2 := splitLines(t1), splitLines(t2)
	var out []string
	if flagBool(flags, "unified") {
		out = append(out, "--- "+pos[0].Text, "+++ "+pos[1].Text)
	}
	max := len(l1)
	if len(l2) > max {
		max = len(l2)
	}
	for i := 0; i < max; i++ {
		var a, b string
		if i < len(l1) {
			a = l1[i]
		}
		if i < len(l2) {
			b = l2[i]
		}
		if a == b {
			continue
		}
		if i < len(l1) {
			out = append(out, "-"+a)
		}
		if i < len(l2) {
			out = append(out, "+"+b)
		}
	}
	return effect.Ok(joinLines(out))
}

func runCsplit(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("csplit: usage: csplit <file> <pattern>")
	}
	text, err := readFileText(sys, pos[0].Text)
	if err != nil {
		return errResult(err)
	}
	re, err := regexp.Compile(strings.Trim(pos[1].Text, "/"))
	if err != nil {
		return effect.Fail("csplit: invalid pattern: " + err.Error())
	}
	lines := splitLines(text)
	var chunks [][]string
	var cur []string
	for _, line := range lines {
		if re.MatchString(line) && len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	var names []string
	for i, chunk := range chunks {
		name := fmt.Sprintf("xx%02d", i)
		if err := sys.FS.WriteFile(name, []byte(joinLines(chunk)), cc.Actor); err != nil {
			return errResult(err)
		}
		names = append(names, name)
	}
	return effect.Ok(joinLines(names))
}

func runPrintf(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("printf: missing format")
	}
	format := unescapeBackslashes(pos[0].Text)
	args := make([]any, len(pos)-1)
	for i, p := range pos[1:] {
		args[i] = p.Text
	}
	return effect.Ok(fmt.Sprintf(format, args...))
}

func unescapeBackslashes(s string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`)
	return replacer.Replace(s)
}

func runCksum(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	sum := crc32.ChecksumIEEE([]byte(text))
	return effect.Ok(fmt.Sprintf("%d %d", sum, len(text)))
}

// runAwk supports the subset spec.md §4.3 asks for: an optional
// "/pattern/ { action }" clause and a bare "{ action }" applied to every
// line, where action is a comma-separated list of $N field references
// and literal text joined with print-style concatenation. This is not a
// general awk interpreter, only the field-splitting print contract.
func runAwk(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("awk: missing program")
	}
	program := pos[0].Text
	fs := " "
	if v, ok := flagStr(flags, "fieldSep"); ok {
		fs = v
	}
	text, err := inputText(cc, pos, sys, 1)
	if err != nil {
		return errResult(err)
	}

	pattern, action := "", program
	if strings.HasPrefix(program, "/") {
		end := strings.Index(program[1:], "/")
		if end >= 0 {
			pattern = program[1 : end+1]
			action = strings.TrimSpace(program[end+2:])
		}
	}
	action = strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(action), "}"), "{")
	action = strings.TrimSpace(strings.TrimPrefix(action, "print"))

	var re *regexp.Regexp
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return effect.Fail("awk: invalid pattern: " + err.Error())
		}
	}

	var out []string
	for _, line := range splitLines(text) {
		if re != nil && !re.MatchString(line) {
			continue
		}
		fields := strings.Split(line, fs)
		out = append(out, awkEval(action, line, fields))
	}
	return effect.Ok(joinLines(out))
}

func awkEval(action, line string, fields []string) string {
	if action == "" {
		return line
	}
	var parts []string
	for _, term := range strings.Split(action, ",") {
		term = strings.TrimSpace(term)
		switch {
		case term == "$0":
			parts = append(parts, line)
		case strings.HasPrefix(term, "$"):
			n := mustInt(strings.TrimPrefix(term, "$"), 0)
			if n >= 1 && n <= len(fields) {
				parts = append(parts, fields[n-1])
			} else {
				parts = append(parts, "")
			}
		default:
			parts = append(parts, strings.Trim(term, `"`))
		}
	}
	return strings.Join(parts, " ")
}

// runSed supports the single s/pattern/replacement/[g] substitution
// command spec.md §4.3 names, applied line by line.
func runSed(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("sed: missing script")
	}
	script := pos[0].Text
	text, err := inputText(cc, pos, sys, 1)
	if err != nil {
		return errResult(err)
	}
	if !strings.HasPrefix(script, "s") || len(script) < 2 {
		return effect.Fail("sed: unsupported script, expected s/pattern/replacement/[g]")
	}
	delim := script[1]
	rest := script[2:]
	parts := strings.SplitN(rest, string(delim), 3)
	if len(parts) < 2 {
		return effect.Fail("sed: malformed substitution")
	}
	pattern, replacement := parts[0], parts[1]
	global := len(parts) == 3 && strings.Contains(parts[2], "g")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return effect.Fail("sed: invalid pattern: " + err.Error())
	}
	goRepl := regexp.MustCompile(`\\(\d)`).ReplaceAllString(replacement, "$$$1")

	var out []string
	for _, line := range splitLines(text) {
		if global {
			out = append(out, re.ReplaceAllString(line, goRepl))
		} else {
			replaced := false
			out = append(out, re.ReplaceAllStringFunc(line, func(m string) string {
				if replaced {
					return m
				}
				replaced = true
				return re.ReplaceAllString(m, goRepl)
			}))
		}
	}
	return effect.Ok(joinLines(out))
}
