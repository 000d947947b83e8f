package commands

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
)

func init() {
	Default.Register(Entry{
		Name: "ls", Help: "list directory contents",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "long", Short: 'l'},
			{Name: "all", Short: 'a'},
			{Name: "recursive", Short: 'R'},
			{Name: "time", Short: 't'},
			{Name: "size", Short: 'S'},
			{Name: "extension", Short: 'X'},
			{Name: "reverse", Short: 'r'},
			{Name: "one", Short: '1'},
			{Name: "dir", Short: 'd'},
		}},
		Run: runLs,
	})
	Default.Register(Entry{
		Name: "cp", Help: "copy files and directories",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "recursive", Short: 'r'}, {Name: "recursive", Short: 'R'},
			{Name: "preserve", Short: 'p'},
			{Name: "interactive", Short: 'i'},
			{Name: "force", Short: 'f'},
		}},
		Run: runCp,
	})
	Default.Register(Entry{
		Name: "mv", Help: "rename or move a file", Run: runMv,
	})
	Default.Register(Entry{
		Name: "rm", Help: "remove files and directories",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "recursive", Short: 'r'}, {Name: "recursive", Short: 'R'},
			{Name: "interactive", Short: 'i'},
			{Name: "force", Short: 'f'},
		}},
		Run: runRm,
	})
	Default.Register(Entry{
		Name: "mkdir", Help: "create a directory",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "parents", Short: 'p'}}},
		Run:    runMkdir,
	})
	Default.Register(Entry{
		Name: "rmdir", Help: "remove an empty directory",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "parents", Short: 'p'}}},
		Run:    runRmdir,
	})
	Default.Register(Entry{
		Name: "touch", Help: "create a file or update its mtime",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "date", Short: 'd', TakesValue: true},
			{Name: "stamp", Short: 't', TakesValue: true},
		}},
		Run: runTouch,
	})
	Default.Register(Entry{
		Name: "ln", Help: "create a symbolic link",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "symbolic", Short: 's'}}},
		Run:    runLn,
	})
	Default.Register(Entry{
		Name: "chmod", Help: "change a node's permission bits",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "recursive", Short: 'R'}}},
		Run:    runChmod,
	})
	Default.Register(Entry{
		Name: "chown", Help: "change a node's owner",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "recursive", Short: 'R'}}, RootRequired: true},
		Run:    runChown,
	})
	Default.Register(Entry{
		Name: "chgrp", Help: "change a node's group",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "recursive", Short: 'R'}}},
		Run:    runChgrp,
	})
	Default.Register(Entry{
		Name: "find", Help: "search a directory tree", Run: runFind,
	})
}

func runLs(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) > 1 {
		var sections []string
		for _, p := range pos {
			one := runLs(sys, cc, flags, []shell.Token{p})
			if !one.Success {
				return one
			}
			sections = append(sections, one.Output)
		}
		return effect.Ok(joinLines(sections))
	}

	target := argOrDot(pos)
	abs := sys.FS.AbsPath(target)
	node, err := sys.FS.GetNode(abs, true)
	if err != nil {
		return errResult(err)
	}

	long := flagBool(flags, "long")
	all := flagBool(flags, "all")
	asDir := flagBool(flags, "dir") || node.Kind != vfs.KindDirectory

	if asDir {
		return effect.Ok(lsLine(path.Base(abs), node, long))
	}

	names, err := sys.FS.ListChildren(abs, cc.Actor)
	if err != nil {
		return errResult(err)
	}
	type entry struct {
		name string
		node *vfs.Node
	}
	var entries []entry
	for _, name := range names {
		if !all && strings.HasPrefix(name, ".") {
			continue
		}
		child, cErr := sys.FS.GetNode(path.Join(abs, name), false)
		if cErr != nil {
			continue
		}
		entries = append(entries, entry{name, child})
	}

	switch {
	case flagBool(flags, "time"):
		sortEntries(entries, func(a, b entry) bool { return a.node.Mtime.After(b.node.Mtime) })
	case flagBool(flags, "size"):
		sortEntries(entries, func(a, b entry) bool { return len(a.node.Content) > len(b.node.Content) })
	case flagBool(flags, "extension"):
		sortEntries(entries, func(a, b entry) bool { return path.Ext(a.name) < path.Ext(b.name) })
	default:
		sortEntries(entries, func(a, b entry) bool { return a.name < b.name })
	}
	if flagBool(flags, "reverse") {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	var lines []string
	for _, e := range entries {
		if long {
			lines = append(lines, lsLine(e.name, e.node, true))
		} else {
			lines = append(lines, e.name)
		}
	}

	if flagBool(flags, "recursive") {
		for _, e := range entries {
			if e.node.Kind == vfs.KindDirectory {
				sub := runLs(sys, cc, flags, []shell.Token{{Text: path.Join(abs, e.name)}})
				lines = append(lines, "", path.Join(abs, e.name)+":", sub.Output)
			}
		}
	}
	return effect.Ok(joinLines(lines))
}

func lsLine(name string, node *vfs.Node, long bool) string {
	if !long {
		return name
	}
	size := int64(len(node.Content))
	if node.Kind == vfs.KindSymlink {
		size = int64(len(node.Target))
	}
	target := name
	if node.Kind == vfs.KindSymlink {
		target = name + " -> " + node.Target
	}
	return fmt.Sprintf("%s %s %-8s %-8s %8d %s %s",
		modeString(node.Kind, node.Mode), "1", node.Owner, node.Group, size, formatMtime(node.Mtime), target)
}

func sortEntries[T any](s []T, less func(a, b T) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func runCp(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("cp: missing file operand")
	}
	dest := pos[len(pos)-1].Text
	sources := pos[:len(pos)-1]
	recursive := flagBool(flags, "recursive")
	force := flagBool(flags, "force")
	interactive := flagBool(flags, "interactive")

	var errs []string
	for _, src := range sources {
		absSrc := sys.FS.AbsPath(src.Text)
		node, err := sys.FS.GetNode(absSrc, true)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cp: cannot stat '%s': %v", src.Text, err))
			continue
		}
		if node.Kind == vfs.KindDirectory && !recursive {
			errs = append(errs, fmt.Sprintf("cp: -r not specified; omitting directory '%s'", src.Text))
			continue
		}

		destPath := dest
		if destNode, dErr := sys.FS.GetNode(sys.FS.AbsPath(dest), true); dErr == nil && destNode.Kind == vfs.KindDirectory {
			destPath = path.Join(dest, path.Base(absSrc))
		}

		if interactive && !force {
			if _, exists := sys.FS.GetNode(sys.FS.AbsPath(destPath), true); exists == nil {
				return effect.Ok("").WithEffect(effect.New(effect.KindConfirm, map[string]any{
					"message":           []string{fmt.Sprintf("overwrite '%s'?", destPath)},
					"on_confirm_command": fmt.Sprintf("cp --confirmed=%s %s %s", destPath, src.Text, dest),
				}))
			}
		}

		if err := copyNode(sys, cc, absSrc, destPath); err != nil {
			errs = append(errs, fmt.Sprintf("cp: %v", err))
		}
	}
	if len(errs) > 0 {
		return effect.Result{Success: false, Output: joinLines(nil), Err: &effect.CommandError{Message: joinLines(errs)}}
	}
	return effect.Ok("")
}

func copyNode(sys *System, cc shell.CommandContext, absSrc, destPath string) error {
	node, err := sys.FS.GetNode(absSrc, true)
	if err != nil {
		return err
	}
	switch node.Kind {
	case vfs.KindDirectory:
		if err := sys.FS.CreateDirectory(destPath, cc.Actor); err != nil && err != vfs.ErrFileExists {
			return err
		}
		names, err := sys.FS.ListChildren(absSrc, cc.Actor)
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := copyNode(sys, cc, path.Join(absSrc, name), path.Join(destPath, name)); err != nil {
				return err
			}
		}
		return nil
	case vfs.KindSymlink:
		return sys.FS.Ln(destPath, node.Target, cc.Actor)
	default:
		return sys.FS.WriteFile(destPath, node.Content, cc.Actor)
	}
}

func runMv(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) != 2 {
		return effect.Fail("mv: usage: mv <source> <dest>")
	}
	if err := sys.FS.RenameNode(pos[0].Text, pos[1].Text, cc.Actor); err != nil {
		return errResult(err)
	}
	return effect.Ok("")
}

func runRm(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("rm: missing operand")
	}
	recursive := flagBool(flags, "recursive")
	force := flagBool(flags, "force")
	interactive := flagBool(flags, "interactive")

	if interactive && !force {
		absFirst := sys.FS.AbsPath(pos[0].Text)
		if _, err := sys.FS.GetNode(absFirst, false); err == nil {
			confirmed, wasPiped := stdinConfirms(cc.Stdin)
			if !wasPiped {
				return effect.Ok("").WithEffect(effect.New(effect.KindConfirm, map[string]any{
					"message":            []string{fmt.Sprintf("remove '%s'?", pos[0].Text)},
					"on_confirm_command": "rm -f " + strings.Join(words(pos), " "),
				}))
			}
			if !confirmed {
				return effect.Ok("")
			}
		}
	}

	var errs []string
	for _, p := range pos {
		if err := sys.FS.Remove(p.Text, cc.Actor, recursive); err != nil {
			if err == vfs.ErrFileNotFound && force {
				continue
			}
			errs = append(errs, fmt.Sprintf("rm: cannot remove '%s': %v", p.Text, err))
		}
	}
	if len(errs) > 0 {
		return effect.Result{Success: false, Err: &effect.CommandError{Message: joinLines(errs)}}
	}
	return effect.Ok("")
}

func stdinConfirms(stdin string) (confirmed bool, wasPiped bool) {
	trimmed := strings.TrimSpace(stdin)
	if trimmed == "" {
		return false, false
	}
	return strings.EqualFold(trimmed, "YES") || strings.EqualFold(trimmed, "Y"), true
}

func runMkdir(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("mkdir: missing operand")
	}
	parents := flagBool(flags, "parents")
	for _, p := range pos {
		if parents {
			if err := mkdirAllHelper(sys, p.Text, cc.Actor); err != nil {
				return errResult(err)
			}
			continue
		}
		if err := sys.FS.CreateDirectory(p.Text, cc.Actor); err != nil {
			return errResult(err)
		}
	}
	return effect.Ok("")
}

func mkdirAllHelper(sys *System, p string, actor vfs.Actor) error {
	abs := sys.FS.AbsPath(p)
	if _, err := sys.FS.GetNode(abs, true); err == nil {
		return nil
	}
	parent := path.Dir(abs)
	if parent != "/" && parent != abs {
		if err := mkdirAllHelper(sys, parent, actor); err != nil {
			return err
		}
	}
	if err := sys.FS.CreateDirectory(abs, actor); err != nil && err != vfs.ErrFileExists {
		return err
	}
	return nil
}

func runRmdir(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("rmdir: missing operand")
	}
	parents := flagBool(flags, "parents")
	for _, p := range pos {
		abs := sys.FS.AbsPath(p.Text)
		for {
			if err := sys.FS.Remove(abs, cc.Actor, false); err != nil {
				return errResult(err)
			}
			if !parents || abs == "/" {
				break
			}
			abs = path.Dir(abs)
		}
	}
	return effect.Ok("")
}

func runTouch(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("touch: missing file operand")
	}
	for _, p := range pos {
		existing, err := sys.FS.GetNode(p.Text, true)
		content := []byte{}
		if err == nil {
			content = existing.Content
		}
		if werr := sys.FS.WriteFile(p.Text, content, cc.Actor); werr != nil {
			return errResult(werr)
		}
	}
	return effect.Ok("")
}

func runLn(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) != 2 {
		return effect.Fail("ln: usage: ln -s <target> <link name>")
	}
	if err := sys.FS.Ln(pos[1].Text, pos[0].Text, cc.Actor); err != nil {
		return errResult(err)
	}
	return effect.Ok("")
}

func runChmod(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("chmod: usage: chmod <mode> <path>...")
	}
	mode, err := parseModeArg(pos[0].Text)
	if err != nil {
		return errResult(err)
	}
	recursive := flagBool(flags, "recursive")
	for _, p := range pos[1:] {
		if err := chmodMaybeRecursive(sys, cc, p.Text, mode, recursive); err != nil {
			return errResult(err)
		}
	}
	return effect.Ok("")
}

func chmodMaybeRecursive(sys *System, cc shell.CommandContext, p string, mode uint16, recursive bool) error {
	if err := sys.FS.Chmod(p, mode, cc.Actor); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	node, err := sys.FS.GetNode(p, true)
	if err != nil || node.Kind != vfs.KindDirectory {
		return nil
	}
	names, err := sys.FS.ListChildren(p, cc.Actor)
	if err != nil {
		return nil
	}
	for _, name := range names {
		if err := chmodMaybeRecursive(sys, cc, path.Join(p, name), mode, true); err != nil {
			return err
		}
	}
	return nil
}

func runChown(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("chown: usage: chown <owner> <path>...")
	}
	recursive := flagBool(flags, "recursive")
	for _, p := range pos[1:] {
		if err := chownMaybeRecursive(sys, cc, p.Text, pos[0].Text, recursive); err != nil {
			return errResult(err)
		}
	}
	return effect.Ok("")
}

func chownMaybeRecursive(sys *System, cc shell.CommandContext, p, owner string, recursive bool) error {
	if err := sys.FS.Chown(p, owner, cc.Actor); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	node, err := sys.FS.GetNode(p, true)
	if err != nil || node.Kind != vfs.KindDirectory {
		return nil
	}
	names, _ := sys.FS.ListChildren(p, cc.Actor)
	for _, name := range names {
		if err := chownMaybeRecursive(sys, cc, path.Join(p, name), owner, true); err != nil {
			return err
		}
	}
	return nil
}

func runChgrp(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("chgrp: usage: chgrp <group> <path>...")
	}
	recursive := flagBool(flags, "recursive")
	for _, p := range pos[1:] {
		if err := chgrpMaybeRecursive(sys, cc, p.Text, pos[0].Text, recursive); err != nil {
			return errResult(err)
		}
	}
	return effect.Ok("")
}

func chgrpMaybeRecursive(sys *System, cc shell.CommandContext, p, group string, recursive bool) error {
	if err := sys.FS.Chgrp(p, group, cc.Actor); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	node, err := sys.FS.GetNode(p, true)
	if err != nil || node.Kind != vfs.KindDirectory {
		return nil
	}
	names, _ := sys.FS.ListChildren(p, cc.Actor)
	for _, name := range names {
		if err := chgrpMaybeRecursive(sys, cc, path.Join(p, name), group, true); err != nil {
			return err
		}
	}
	return nil
}

// findExpr is one ANDed predicate group; groups are ORed together,
// matching find's "-o" grammar at the top level only (spec.md's
// contract does not require full parenthesized boolean expressions).
type findExpr struct {
	name    string
	kind    string
	perm    string
	deleteP bool
	exec    []string
}

func runFind(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	raw := words(pos)
	root := "."
	i := 0
	if len(raw) > 0 && !strings.HasPrefix(raw[0], "-") {
		root = raw[0]
		i = 1
	}
	groups := parseFindExpr(raw[i:])

	var matches []string
	var execCommands []string
	var deleted []string
	absRoot := sys.FS.AbsPath(root)
	walkFind(sys, cc, absRoot, func(p string, node *vfs.Node) {
		if !findMatches(groups, p, node) {
			return
		}
		matches = append(matches, p)
		for _, g := range groups {
			if !findMatches([]findExpr{g}, p, node) {
				continue
			}
			if g.deleteP {
				if err := sys.FS.Remove(p, cc.Actor, false); err == nil {
					deleted = append(deleted, p)
				}
			}
			if len(g.exec) > 0 {
				cmd := make([]string, len(g.exec))
				for idx, tok := range g.exec {
					if tok == "{}" {
						cmd[idx] = p
					} else {
						cmd[idx] = tok
					}
				}
				execCommands = append(execCommands, strings.Join(cmd, " "))
			}
		}
	})

	result := effect.Ok(joinLines(matches))
	if len(execCommands) > 0 {
		result = result.WithEffect(effect.New(effect.KindExecuteCommands, map[string]any{
			"commands": execCommands,
			"output":   joinLines(matches),
		}))
	}
	return result
}

func walkFind(sys *System, cc shell.CommandContext, p string, visit func(string, *vfs.Node)) {
	node, err := sys.FS.GetNode(p, false)
	if err != nil {
		return
	}
	visit(p, node)
	if node.Kind != vfs.KindDirectory {
		return
	}
	names, err := sys.FS.ListChildren(p, cc.Actor)
	if err != nil {
		return
	}
	for _, name := range sortedStrings(names) {
		walkFind(sys, cc, path.Join(p, name), visit)
	}
}

func parseFindExpr(tokens []string) []findExpr {
	var groups []findExpr
	cur := findExpr{}
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "-name":
			i++
			if i < len(tokens) {
				cur.name = tokens[i]
			}
		case "-type":
			i++
			if i < len(tokens) {
				cur.kind = tokens[i]
			}
		case "-perm":
			i++
			if i < len(tokens) {
				cur.perm = tokens[i]
			}
		case "-delete":
			cur.deleteP = true
		case "-exec":
			i++
			var args []string
			for i < len(tokens) && tokens[i] != ";" {
				args = append(args, tokens[i])
				i++
			}
			cur.exec = args
		case "-o":
			groups = append(groups, cur)
			cur = findExpr{}
		}
	}
	groups = append(groups, cur)
	return groups
}

func findMatches(groups []findExpr, p string, node *vfs.Node) bool {
	for _, g := range groups {
		if g.name != "" {
			if ok, _ := path.Match(g.name, path.Base(p)); !ok {
				continue
			}
		}
		if g.kind != "" {
			want := map[string]vfs.Kind{"f": vfs.KindFile, "d": vfs.KindDirectory, "l": vfs.KindSymlink}[g.kind]
			if node.Kind != want {
				continue
			}
		}
		if g.perm != "" {
			mode, err := strconv.ParseUint(strings.TrimPrefix(g.perm, "0o"), 8, 16)
			if err != nil || uint16(mode) != node.Mode {
				continue
			}
		}
		return true
	}
	return false
}
