package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aedmark/shellos/pkg/bridge"
	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/identity"
	"github.com/aedmark/shellos/pkg/shell"
)

const osVersion = "5.0"

func init() {
	Default.Register(Entry{Name: "sync", Help: "flush session state to the host",
		Run: runSync})
	Default.Register(Entry{Name: "reset", Help: "wipe the filesystem back to defaults",
		Schema: shell.CommandSchema{RootRequired: true}, Run: runReset})
	Default.Register(Entry{Name: "reboot", Help: "restart the session", Run: runReboot})
	Default.Register(Entry{Name: "backup", Help: "export a full system-state snapshot", Run: runBackup})
	Default.Register(Entry{Name: "restore", Help: "import a system-state snapshot",
		Schema: shell.CommandSchema{RootRequired: true, Flags: []shell.FlagSpec{
			{Name: "confirmed", Long: "confirmed", TakesValue: true},
		}}, Run: runRestore})
	Default.Register(Entry{Name: "fsck", Help: "check filesystem integrity",
		Schema: shell.CommandSchema{Flags: []shell.FlagSpec{{Name: "repair", Short: 'y'}}}, Run: runFsck})
	Default.Register(Entry{Name: "help", Help: "list available commands", Run: runHelp})
	Default.Register(Entry{Name: "man", Help: "show a command's help text", Run: runMan})
	Default.Register(Entry{Name: "printscreen", Help: "capture a snapshot of the display", Run: runPrintscreen})
	Default.Register(Entry{Name: "run", Help: "execute a script of commands", Run: runRunScript})
	Default.Register(Entry{Name: "check_fail", Help: "assert a condition for scripted tests", Run: runCheckFail})
	Default.Register(Entry{Name: "story", Help: "manage the directory's snapshot history", Run: runStory})
}

func runSync(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok("").WithEffect(effect.New(effect.KindSyncSessionState, nil))
}

func runReset(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	sys.FS.Reset()
	_ = sys.Audit.Log(cc.Actor.Name, "reset", "filesystem reset to defaults")
	return effect.Ok("filesystem reset to defaults").WithEffect(effect.New(effect.KindReboot, nil))
}

func runReboot(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok("").WithEffect(effect.New(effect.KindReboot, nil))
}

func runBackup(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	fsSnapshot := json.RawMessage(sys.FS.SaveStateToJSON())
	credentials, err := json.Marshal(sys.Identity.Users.AllUsers())
	if err != nil {
		return effect.Fail("backup: " + err.Error())
	}
	groups, err := json.Marshal(sys.Identity.Groups.AllGroups())
	if err != nil {
		return effect.Fail("backup: " + err.Error())
	}
	sessionState, err := json.Marshal(map[string]any{
		"user": cc.Session.User,
		"cwd":  cc.Session.CurrentPath,
	})
	if err != nil {
		return effect.Fail("backup: " + err.Error())
	}
	b, err := bridge.NewBackup(osVersion, time.Now().UTC().Format(time.RFC3339), fsSnapshot, credentials, groups, sessionState)
	if err != nil {
		return effect.Fail("backup: " + err.Error())
	}
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return effect.Fail("backup: " + err.Error())
	}
	_ = sys.Audit.Log(cc.Actor.Name, "backup", "exported system-state snapshot")
	return effect.Ok("").WithEffect(effect.New(effect.KindBackupData, map[string]any{
		"filename": "shellos_backup.json",
		"content":  string(raw),
	}))
}

func runRestore(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := inputText(cc, pos, sys, 0)
	if err != nil {
		return errResult(err)
	}
	var b bridge.Backup
	if err := json.Unmarshal([]byte(text), &b); err != nil {
		return effect.Fail("restore: malformed backup: " + err.Error())
	}
	if !b.Verify() {
		return effect.Fail("restore: checksum mismatch, refusing to apply")
	}

	if token, ok := flagStr(flags, "confirmed"); !ok || token != "restore" {
		return effect.Ok("").WithEffect(effect.New(effect.KindConfirm, map[string]any{
			"message":            []string{"This will overwrite all current filesystem, user, and group state.", "Continue?"},
			"on_confirm_command": "restore --confirmed=restore " + strings.Join(words(pos), " "),
		}))
	}

	if err := sys.FS.LoadStateFromJSON(b.FSDataSnapshot); err != nil {
		return effect.Fail("restore: " + err.Error())
	}
	var users map[string]*identity.User
	if err := json.Unmarshal(b.UserCredentials, &users); err != nil {
		return effect.Fail("restore: malformed user credentials: " + err.Error())
	}
	sys.Identity.Users.LoadUsers(users)
	var groups map[string][]string
	if err := json.Unmarshal(b.UserGroups, &groups); err != nil {
		return effect.Fail("restore: malformed group data: " + err.Error())
	}
	sys.Identity.Groups.LoadGroups(groups)

	_ = sys.Audit.Log(cc.Actor.Name, "restore", "system state restored from backup")
	return effect.Ok("system state restored from backup").WithEffect(effect.New(effect.KindReboot, nil))
}

func runFsck(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	repair := flagBool(flags, "repair")
	var homeUsers []string
	for name := range sys.Identity.Users.AllUsers() {
		homeUsers = append(homeUsers, name)
	}
	report := sys.FS.Fsck(sys.Identity.Users.UserExists, sys.Identity.Groups.GroupExists, homeUsers, repair)
	if len(report.Issues) == 0 {
		return effect.Ok("filesystem check complete: no issues found")
	}
	header := fmt.Sprintf("filesystem check complete: %d issue(s) found", len(report.Issues))
	return effect.Ok(joinLines(append([]string{header}, report.Issues...)))
}

func runHelp(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	var lines []string
	for _, name := range sys.Registry.Names() {
		entry, _ := sys.Registry.Lookup(name)
		lines = append(lines, fmt.Sprintf("%-12s %s", name, entry.Help))
	}
	return effect.Ok(joinLines(lines))
}

func runMan(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("man: missing command name")
	}
	entry, ok := sys.Registry.Lookup(pos[0].Text)
	if !ok {
		return effect.Fail("man: no manual entry for " + pos[0].Text)
	}
	return effect.Ok(fmt.Sprintf("%s - %s", entry.Name, entry.Help))
}

func runPrintscreen(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok("").WithEffect(effect.New(effect.KindDumpScreenText, nil))
}

func runRunScript(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("run: missing script path")
	}
	text, err := readFileText(sys, pos[0].Text)
	if err != nil {
		return errResult(err)
	}
	var commands []string
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return effect.Ok("").WithEffect(effect.New(effect.KindExecuteScript, map[string]any{
		"commands": commands,
	}))
}

func runCheckFail(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("check_fail: missing command to assert")
	}
	command := strings.Join(words(pos), " ")
	return effect.Ok("").WithEffect(effect.New(effect.KindExecuteCommands, map[string]any{
		"commands":     []string{command},
		"expectFailure": true,
	}))
}

func runStory(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("story: usage: story <begin|save|log|rewind> [args]")
	}
	sub := pos[0].Text
	rest := pos[1:]
	cwd := cc.Session.CurrentPath

	switch sub {
	case "begin":
		if err := sys.Story.Begin(cwd, cc.Actor); err != nil {
			return effect.Fail("story: " + err.Error())
		}
		return effect.Ok("story begun in " + cwd)
	case "save":
		message := "checkpoint"
		if len(rest) > 0 {
			message = strings.Join(words(rest), " ")
		}
		id, err := sys.Story.Save(cwd, message, cc.Actor)
		if err != nil {
			return effect.Fail("story: " + err.Error())
		}
		return effect.Ok("saved chapter " + id)
	case "log":
		entries, err := sys.Story.Log(cwd)
		if err != nil {
			return effect.Fail("story: " + err.Error())
		}
		var lines []string
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%s  %s  %s (%s)", e.ID, e.Timestamp, e.Message, e.Author))
		}
		return effect.Ok(joinLines(lines))
	case "rewind":
		if len(rest) == 0 {
			return effect.Fail("story: usage: story rewind <snapshot-id>")
		}
		return effect.Ok("").WithEffect(effect.New(effect.KindConfirm, map[string]any{
			"message":            []string{"This will discard uncommitted changes in " + cwd + ".", "Continue?"},
			"on_confirm_command": "story rewind-confirmed " + rest[0].Text,
		}))
	case "rewind-confirmed":
		if len(rest) == 0 {
			return effect.Fail("story: usage: story rewind-confirmed <snapshot-id>")
		}
		if err := sys.Story.Rewind(cwd, rest[0].Text, cc.Actor); err != nil {
			return effect.Fail("story: " + err.Error())
		}
		_ = sys.Audit.Log(cc.Actor.Name, "story_rewind", cwd+" -> "+rest[0].Text)
		return effect.Ok("rewound to " + rest[0].Text)
	default:
		return effect.Fail("story: unknown subcommand: " + sub)
	}
}
