package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/session"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/vfs"
)

func init() {
	Default.Register(Entry{Name: "alias", Help: "define or list command aliases", Run: runAlias})
	Default.Register(Entry{Name: "unalias", Help: "remove a command alias", Run: runUnalias})
	Default.Register(Entry{Name: "set", Help: "set a shell variable", Run: runSet})
	Default.Register(Entry{Name: "unset", Help: "remove a shell variable", Run: runUnset})
	Default.Register(Entry{Name: "export", Help: "set an exported environment variable", Run: runSet})
	Default.Register(Entry{Name: "history", Help: "show command history",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "clear", Short: 'c'}}}, Run: runHistory})
	Default.Register(Entry{Name: "jobs", Help: "list background jobs", Run: runJobs})
	Default.Register(Entry{Name: "fg", Help: "bring a background job to the foreground", Run: runFg})
	Default.Register(Entry{Name: "bg", Help: "resume a stopped job in the background", Run: runBg})
	Default.Register(Entry{Name: "kill", Help: "signal a background job",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "signal", Short: 's', TakesValue: true}}},
		Run:    runKill})
	Default.Register(Entry{Name: "ps", Help: "report job status", Run: runPs})
	Default.Register(Entry{Name: "who", Help: "show who is logged in", Run: runWho})
	Default.Register(Entry{Name: "whoami", Help: "print the effective username", Run: runWhoami})
	Default.Register(Entry{Name: "pwd", Help: "print the working directory", Run: runPwd})
	Default.Register(Entry{Name: "cd", Help: "change the working directory", Run: runCd})
	Default.Register(Entry{Name: "clear", Help: "clear the screen", Run: runClear})
	Default.Register(Entry{Name: "date", Help: "print the current date and time", Run: runDate})
	Default.Register(Entry{Name: "uptime", Help: "print how long the session has been running", Run: runUptime})
	Default.Register(Entry{Name: "echo", Help: "print arguments",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "noNewline", Short: 'n'}}}, Run: runEcho})
}

func runAlias(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		all := cc.Session.Aliases.All()
		var names []string
		for name := range all {
			names = append(names, name)
		}
		var lines []string
		for _, name := range sortedStrings(names) {
			lines = append(lines, fmt.Sprintf("%s='%s'", name, all[name]))
		}
		return effect.Ok(joinLines(lines))
	}
	arg := strings.Join(words(pos), " ")
	name, expansion, ok := strings.Cut(arg, "=")
	if !ok {
		return effect.Fail("alias: usage: alias name='expansion'")
	}
	cc.Session.Aliases.Set(strings.TrimSpace(name), strings.Trim(expansion, "'\""))
	return effect.Ok("")
}

func runUnalias(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("unalias: missing name")
	}
	cc.Session.Aliases.Unset(pos[0].Text)
	return effect.Ok("")
}

func runSet(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		all := cc.Session.Env.All()
		var names []string
		for k := range all {
			names = append(names, k)
		}
		var lines []string
		for _, k := range sortedStrings(names) {
			lines = append(lines, fmt.Sprintf("%s=%s", k, all[k]))
		}
		return effect.Ok(joinLines(lines))
	}
	arg := strings.Join(words(pos), " ")
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return effect.Fail("set: usage: set NAME=value")
	}
	cc.Session.Env.Set(strings.TrimSpace(name), value)
	return effect.Ok("")
}

func runUnset(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("unset: missing name")
	}
	cc.Session.Env.Unset(pos[0].Text)
	return effect.Ok("")
}

func runHistory(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if flagBool(flags, "clear") {
		cc.Session.History.Clear()
		return effect.Ok("")
	}
	var lines []string
	for i, entry := range cc.Session.History.All() {
		lines = append(lines, fmt.Sprintf("%5d  %s", i+1, entry))
	}
	return effect.Ok(joinLines(lines))
}

func runJobs(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	var lines []string
	for _, j := range cc.Session.Jobs.All() {
		lines = append(lines, fmt.Sprintf("[%d]  %s  %s", j.PID, j.State, j.Command))
	}
	return effect.Ok(joinLines(lines))
}

func runFg(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("fg: missing job")
	}
	pid, ok := pidArg(pos[0].Text)
	if !ok {
		return effect.Fail("fg: invalid job id")
	}
	job, found := cc.Session.Jobs.Get(pid)
	if !found {
		return effect.Fail(fmt.Sprintf("fg: job %d not found", pid))
	}
	return effect.Ok(job.Command).WithEffect(effect.New(effect.KindSignalJob, map[string]any{
		"pid": pid, "signal": "foreground",
	}))
}

func runBg(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("bg: missing job")
	}
	pid, ok := pidArg(pos[0].Text)
	if !ok {
		return effect.Fail("bg: invalid job id")
	}
	if err := cc.Session.Jobs.SetState(pid, session.JobRunning); err != nil {
		return effect.Fail(fmt.Sprintf("bg: job %d not found", pid))
	}
	return effect.Ok(fmt.Sprintf("[%d] running", pid)).WithEffect(effect.New(effect.KindSignalJob, map[string]any{
		"pid": pid, "signal": "background",
	}))
}

// killSignal resolves the signal name from either `-s SIG` or a bare
// `-SIG` token (e.g. `-STOP`, `-9`), defaulting to TERM, and returns it
// alongside the remaining positional (job id) tokens.
func killSignal(flags map[string]any, pos []shell.Token) (string, []shell.Token) {
	if sig, ok := flagStr(flags, "signal"); ok {
		return strings.ToUpper(sig), pos
	}
	if len(pos) > 0 && strings.HasPrefix(pos[0].Text, "-") {
		return strings.ToUpper(strings.TrimPrefix(pos[0].Text, "-")), pos[1:]
	}
	return "TERM", pos
}

func runKill(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	signal, rest := killSignal(flags, pos)
	if len(rest) == 0 {
		return effect.Fail("kill: missing job")
	}
	pid, ok := pidArg(rest[0].Text)
	if !ok {
		return effect.Fail("kill: invalid job id")
	}
	if _, found := cc.Session.Jobs.Get(pid); !found {
		return effect.Fail(fmt.Sprintf("kill: job %d not found", pid))
	}

	switch signal {
	case "STOP", "19", "SIGSTOP":
		_ = cc.Session.Jobs.SetState(pid, session.JobStopped)
		return effect.Ok(fmt.Sprintf("[%d] stopped", pid)).WithEffect(effect.New(effect.KindSignalJob, map[string]any{
			"pid": pid, "signal": "STOP",
		}))
	case "CONT", "18", "SIGCONT":
		_ = cc.Session.Jobs.SetState(pid, session.JobRunning)
		return effect.Ok(fmt.Sprintf("[%d] running", pid)).WithEffect(effect.New(effect.KindSignalJob, map[string]any{
			"pid": pid, "signal": "CONT",
		}))
	default:
		cc.Session.Jobs.Remove(pid)
		return effect.Ok(fmt.Sprintf("[%d] terminated", pid)).WithEffect(effect.New(effect.KindSignalJob, map[string]any{
			"pid": pid, "signal": signal,
		}))
	}
}

func runPs(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	lines := []string{"  PID STATE    COMMAND"}
	for _, j := range cc.Session.Jobs.All() {
		lines = append(lines, fmt.Sprintf("%5d %-8s %s", j.PID, j.State, j.Command))
	}
	return effect.Ok(joinLines(lines))
}

func runWho(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok(fmt.Sprintf("%s\tconsole\t%s", cc.Session.User, time.Unix(cc.Session.StartedAt, 0).Format("Jan _2 15:04")))
}

func runWhoami(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok(cc.Actor.Name)
}

func runPwd(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok(cc.Session.CurrentPath)
}

func runCd(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	target := "/home/" + cc.Actor.Name
	if len(pos) > 0 {
		target = pos[0].Text
	}
	abs := sys.FS.AbsPath(target)
	node, err := sys.FS.GetNode(abs, true)
	if err != nil {
		return errResult(err)
	}
	if node.Kind != vfs.KindDirectory {
		return effect.Fail(target + ": not a directory")
	}
	return effect.Ok("").WithEffect(effect.New(effect.KindChangeDirectory, map[string]any{"path": abs}))
}

func runClear(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok("").WithEffect(effect.New(effect.KindClearScreen, nil))
}

func runDate(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok(time.Now().Format("Mon Jan _2 15:04:05 MST 2006"))
}

func runUptime(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	elapsed := time.Now().Unix() - cc.Session.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return effect.Ok(fmt.Sprintf("up %d seconds", elapsed))
}

func runEcho(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	out := strings.Join(words(pos), " ")
	if !flagBool(flags, "noNewline") {
		out += "\n"
	}
	return effect.Ok(out)
}
