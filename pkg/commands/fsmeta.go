package commands

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	ppath "path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/aedmark/shellos/pkg/cryptutil"
	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
)

func init() {
	Default.Register(Entry{Name: "tree", Help: "list a directory tree",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "all", Short: 'a'}}}, Run: runTree})
	Default.Register(Entry{Name: "du", Help: "estimate disk usage",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "human", Short: 'h'}, {Name: "summarize", Short: 's'},
		}}, Run: runDu})
	Default.Register(Entry{Name: "df", Help: "report filesystem capacity usage",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "human", Short: 'h'}}}, Run: runDf})
	Default.Register(Entry{Name: "base64", Help: "base64 encode or decode",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "decode", Short: 'd'}}}, Run: runBase64})
	Default.Register(Entry{Name: "xor", Help: "XOR input against a repeating key",
		Run: runXor})
	Default.Register(Entry{Name: "ocrypt", Help: "encrypt or decrypt a file with a passphrase",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{
			{Name: "decrypt", Short: 'd'}, {Name: "passphrase", Short: 'p', TakesValue: true},
		}}, Run: runOcrypt})
	Default.Register(Entry{Name: "zip", Help: "archive files into a zip container", Run: runZip})
	Default.Register(Entry{Name: "unzip", Help: "extract a zip container", Run: runUnzip})
}

func runTree(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	root := argOrDot(pos)
	all := flagBool(flags, "all")
	var lines []string
	var dirs, files int
	var walk func(dirPath, prefix string)
	walk = func(dirPath, prefix string) {
		names, err := sys.FS.ListChildren(dirPath, cc.Actor)
		if err != nil {
			return
		}
		var kept []string
		for _, n := range names {
			if !all && strings.HasPrefix(n, ".") {
				continue
			}
			kept = append(kept, n)
		}
		sort.Strings(kept)
		for i, name := range kept {
			last := i == len(kept)-1
			connector := "├── "
			nextPrefix := prefix + "│   "
			if last {
				connector = "└── "
				nextPrefix = prefix + "    "
			}
			childPath := ppath.Join(dirPath, name)
			node, err := sys.FS.GetNode(childPath, false)
			if err != nil {
				continue
			}
			lines = append(lines, prefix+connector+name)
			if node.Kind == vfs.KindDirectory {
				dirs++
				walk(childPath, nextPrefix)
			} else {
				files++
			}
		}
	}
	lines = append(lines, root)
	walk(sys.FS.AbsPath(root), "")
	lines = append(lines, fmt.Sprintf("\n%d directories, %d files", dirs, files))
	return effect.Ok(joinLines(lines))
}

func runDu(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	root := argOrDot(pos)
	human := flagBool(flags, "human")
	formatSize := func(n int64) string {
		if human {
			return humanize.Bytes(uint64(n))
		}
		return fmtInt(int(n))
	}
	if flagBool(flags, "summarize") {
		size, err := sys.FS.CalculateNodeSize(root)
		if err != nil {
			return errResult(err)
		}
		return effect.Ok(fmt.Sprintf("%s\t%s", formatSize(size), root))
	}

	var lines []string
	abs := sys.FS.AbsPath(root)
	node, err := sys.FS.GetNode(abs, false)
	if err != nil {
		return errResult(err)
	}
	var walk func(dirPath string, n *vfs.Node)
	walk = func(dirPath string, n *vfs.Node) {
		if n.Kind != vfs.KindDirectory {
			return
		}
		names, _ := sys.FS.ListChildren(dirPath, cc.Actor)
		sort.Strings(names)
		for _, name := range names {
			childPath := ppath.Join(dirPath, name)
			child, cErr := sys.FS.GetNode(childPath, false)
			if cErr != nil {
				continue
			}
			if child.Kind == vfs.KindDirectory {
				walk(childPath, child)
			}
		}
		size, _ := sys.FS.CalculateNodeSize(dirPath)
		lines = append(lines, fmt.Sprintf("%s\t%s", formatSize(size), dirPath))
	}
	walk(abs, node)
	return effect.Ok(joinLines(lines))
}

func runDf(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	used, err := sys.FS.CalculateNodeSize("/")
	if err != nil {
		return errResult(err)
	}
	total := sys.Config.MaxVFSSize
	avail := total - used
	if avail < 0 {
		avail = 0
	}
	pct := 0
	if total > 0 {
		pct = int(used * 100 / total)
	}
	if flagBool(flags, "human") {
		return effect.Ok(fmt.Sprintf("Filesystem     Size  Used  Avail  Use%%\nshellos-vfs    %5s %5s  %5s  %3d%%",
			humanize.Bytes(uint64(total)), humanize.Bytes(uint64(used)), humanize.Bytes(uint64(avail)), pct))
	}
	return effect.Ok(fmt.Sprintf("Filesystem     1K-blocks  Used  Available  Use%%\nshellos-vfs    %9d %5d  %9d  %3d%%",
		total/1024, used/1024, avail/1024, pct))
}

func runBase64(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	if flagBool(flags, "decode") {
		out, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if decErr != nil {
			return effect.Fail("base64: invalid input: " + decErr.Error())
		}
		return effect.Ok(string(out))
	}
	return effect.Ok(base64.StdEncoding.EncodeToString([]byte(text)))
}

func runXor(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("xor: missing key")
	}
	key := []byte(pos[0].Text)
	text, err := inputText(cc, pos, sys, 1)
	if err != nil {
		return errResult(err)
	}
	in := []byte(text)
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ key[i%len(key)]
	}
	return effect.Ok(string(out))
}

func runOcrypt(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("ocrypt: missing file")
	}
	target := pos[0].Text
	passphrase, ok := flagStr(flags, "passphrase")
	if !ok {
		return effect.Fail("ocrypt: missing -p passphrase")
	}
	node, err := sys.FS.GetNode(target, true)
	if err != nil {
		return errResult(err)
	}
	if flagBool(flags, "decrypt") {
		plain, decErr := cryptutil.DecryptFile(passphrase, node.Content)
		if decErr != nil {
			return effect.Fail(decErr.Error())
		}
		if werr := sys.FS.WriteFile(target, plain, cc.Actor); werr != nil {
			return errResult(werr)
		}
		return effect.Ok(target + ": decrypted")
	}
	cipherBytes, encErr := cryptutil.EncryptFile(passphrase, node.Content)
	if encErr != nil {
		return effect.Fail(encErr.Error())
	}
	if werr := sys.FS.WriteFile(target, cipherBytes, cc.Actor); werr != nil {
		return errResult(werr)
	}
	return effect.Ok(target + ": encrypted")
}

func runZip(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) < 2 {
		return effect.Fail("zip: usage: zip <archive> <file>...")
	}
	archivePath := pos[0].Text
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range pos[1:] {
		node, err := sys.FS.GetNode(p.Text, true)
		if err != nil {
			return errResult(err)
		}
		if node.Kind == vfs.KindDirectory {
			continue
		}
		w, werr := zw.Create(strings.TrimPrefix(p.Text, "/"))
		if werr != nil {
			return effect.Fail("zip: " + werr.Error())
		}
		if _, werr := w.Write(node.Content); werr != nil {
			return effect.Fail("zip: " + werr.Error())
		}
	}
	if err := zw.Close(); err != nil {
		return effect.Fail("zip: " + err.Error())
	}
	if err := sys.FS.WriteFile(archivePath, buf.Bytes(), cc.Actor); err != nil {
		return errResult(err)
	}
	return effect.Ok(archivePath + ": created")
}

func runUnzip(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("unzip: missing archive")
	}
	node, err := sys.FS.GetNode(pos[0].Text, true)
	if err != nil {
		return errResult(err)
	}
	zr, zerr := zip.NewReader(bytes.NewReader(node.Content), int64(len(node.Content)))
	if zerr != nil {
		return effect.Fail("unzip: " + zerr.Error())
	}
	destDir := "."
	if len(pos) > 1 {
		destDir = pos[1].Text
	}
	var extracted []string
	for _, f := range zr.File {
		rc, oerr := f.Open()
		if oerr != nil {
			return effect.Fail("unzip: " + oerr.Error())
		}
		content, rerr := io.ReadAll(rc)
		rc.Close()
		if rerr != nil {
			return effect.Fail("unzip: " + rerr.Error())
		}
		target := ppath.Join(destDir, f.Name)
		if err := sys.FS.WriteFile(target, content, cc.Actor); err != nil {
			return errResult(err)
		}
		extracted = append(extracted, target)
	}
	return effect.Ok(joinLines(extracted))
}
