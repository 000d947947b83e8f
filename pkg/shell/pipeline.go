// Package shell implements the front-end pipeline that turns one raw input
// line into executed commands: tokenizing, brace/alias/env/command-substitution
// preprocessing, sequence and pipeline parsing, flag parsing, glob expansion,
// and finally dispatch, per spec.md §4.2.
package shell

import (
	"strings"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/session"
	"github.com/aedmark/shellos/pkg/vfs"
)

// CommandContext is everything a dispatched command needs to run: the
// filesystem and actor it operates under, the session it may mutate, its
// raw (flag-parsed by the command itself) argument tokens, and whatever
// piped in from the previous pipeline segment.
type CommandContext struct {
	FS      *vfs.FS
	Actor   vfs.Actor
	Session *session.Session
	Args    []Token
	Stdin   string
}

// Dispatch resolves a command name to its behavior. pkg/commands supplies
// the concrete implementation via Registry.Lookup; shell never imports
// pkg/commands directly, avoiding an import cycle since commands depends on
// shell's Token/CommandContext types.
type Dispatch func(name string, ctx CommandContext) effect.Result

// Shell ties the front-end pipeline to a live filesystem, session, and
// command dispatcher.
type Shell struct {
	FS       *vfs.FS
	Session  *session.Session
	Actor    vfs.Actor
	Dispatch Dispatch
}

func (sh *Shell) preprocessor() *Preprocessor {
	return &Preprocessor{
		Alias: sh.Session.Aliases.Resolve,
		Env:   sh.Session.Env.Get,
		Exec: func(line string) (string, error) {
			result := sh.Execute(line)
			return result.Output, nil
		},
	}
}

// Execute runs one raw input line end-to-end and returns the result of its
// last sub-command (matching spec.md's "execute() returns the result of the
// final statement" rule for `;`-joined sequences and &&/|| chains).
func (sh *Shell) Execute(line string) effect.Result {
	if strings.TrimSpace(line) == "" {
		return effect.Ok("")
	}

	if IsStandaloneAssignment(line) {
		for _, kv := range ApplyAssignments(line) {
			sh.Session.Env.Set(kv[0], kv[1])
		}
		return effect.Ok("")
	}

	pre := sh.preprocessor()
	expanded, err := pre.Preprocess(line)
	if err != nil {
		return effect.Fail(err.Error())
	}

	var last effect.Result
	hadResult := false
	for _, sequence := range SplitSequences(expanded) {
		subCommands, perr := ParseSequence(sequence)
		if perr != nil {
			return effect.Fail(perr.Error())
		}
		last, hadResult = sh.runSubCommands(subCommands)
	}
	if !hadResult {
		return effect.Ok("")
	}
	return last
}

// runSubCommands executes one ';'-delimited sequence's operator-linked
// sub-commands, honoring &&/|| short-circuiting and & backgrounding.
func (sh *Shell) runSubCommands(subCommands []SubCommand) (effect.Result, bool) {
	var last effect.Result
	hadResult := false
	skipNext := false

	for _, sub := range subCommands {
		if skipNext {
			skipNext = false
			continue
		}
		result := sh.runSubCommand(sub)
		last = result
		hadResult = true

		switch sub.Op {
		case OpAnd:
			skipNext = !result.Success
		case OpOr:
			skipNext = result.Success
		}
	}
	return last, hadResult
}

func (sh *Shell) runSubCommand(sub SubCommand) effect.Result {
	if sub.Op == OpBackground && sub.Redirect == nil {
		command := renderPipeline(sub.Pipeline)
		job := sh.Session.Jobs.Spawn(command, sh.Actor.Name)
		go sh.runPipeline(sub.Pipeline)
		return effect.Ok("").WithEffect(effect.New(effect.KindBackgroundJob, map[string]any{
			"pid":     job.PID,
			"command": job.Command,
		}))
	}

	result := sh.runPipeline(sub.Pipeline)

	if sub.Redirect != nil {
		if werr := sh.writeRedirect(sub.Redirect, result.Output); werr != nil {
			return effect.Fail(werr.Error())
		}
		result.Output = ""
	}
	return result
}

func (sh *Shell) writeRedirect(r *Redirect, output string) error {
	content := []byte(output)
	if r.Append {
		existing, err := sh.FS.GetNode(r.Target, true)
		if err == nil && existing.Kind == vfs.KindFile {
			content = append(append([]byte{}, existing.Content...), content...)
		}
	}
	return sh.FS.WriteFile(r.Target, content, sh.Actor)
}

// runPipeline threads each segment's stdout into the next segment's stdin,
// glob-expanding each segment's positional args against the live VFS before
// dispatch.
func (sh *Shell) runPipeline(segments []Segment) effect.Result {
	if len(segments) == 0 {
		return effect.Ok("")
	}

	stdin := ""
	var result effect.Result
	for _, seg := range segments {
		args := ExpandGlobs(sh.FS, sh.Actor, sh.Session.CurrentPath, seg.Args)
		ctx := CommandContext{
			FS:      sh.FS,
			Actor:   sh.Actor,
			Session: sh.Session,
			Args:    args,
			Stdin:   stdin,
		}
		result = sh.Dispatch(seg.Command, ctx)
		if !result.Success {
			return result
		}
		stdin = result.Output
	}
	return result
}

func renderPipeline(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		words := []string{seg.Command}
		for _, a := range seg.Args {
			words = append(words, a.Text)
		}
		parts[i] = strings.Join(words, " ")
	}
	return strings.Join(parts, " | ")
}
