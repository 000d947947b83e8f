package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aedmark/shellos/pkg/commands"
	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/session"
	"github.com/aedmark/shellos/pkg/shell"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell session",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	rootCmd.RunE = runRepl // bare `shellos` with no subcommand behaves like `shellos repl`
}

func runRepl(cmd *cobra.Command, args []string) error {
	now := time.Now().Unix()
	sys, err := bootSystem("shellos", now)
	if err != nil {
		return err
	}

	username, err := ensureAccount(sys)
	if err != nil {
		return err
	}

	actor := sys.ActorFor(username)
	sess := sys.NewSession(username, now)
	sh := sys.Shell(sess, actor)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt(sess))
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		result := sh.Execute(line)
		if !runLoop(sys, sh, result) {
			break
		}
	}
	return saveIdentity(sys)
}

func prompt(sess *session.Session) string {
	ps1, _ := sess.Env.Get("PS1")
	ps1 = strings.ReplaceAll(ps1, "$PWD", sess.CurrentPath)
	return ps1
}

// runLoop applies one result's effects, possibly re-entering the executor
// (confirm, sudo_exec, execute_commands/script), and reports whether the
// session should keep running.
func runLoop(sys *commands.System, sh *shell.Shell, result effect.Result) bool {
	printResult(result)
	for _, e := range result.Effects {
		switch e.Kind {
		case effect.KindChangeDirectory:
			if p, ok := e.Payload["path"].(string); ok {
				sh.Session.CurrentPath = p
				sh.FS.SetCurrentPath(p)
			}
		case effect.KindClearScreen:
			fmt.Print("\033[H\033[2J")
		case effect.KindBeep:
			fmt.Print("\a")
		case effect.KindLogout, effect.KindReboot:
			return false
		case effect.KindConfirm:
			if !confirmPrompt(e) {
				continue
			}
			if cmdLine, ok := e.Payload["on_confirm_command"].(string); ok {
				runLoop(sys, sh, sh.Execute(cmdLine))
			}
		case effect.KindPasswd:
			if username, ok := e.Payload["username"].(string); ok {
				changePassword(sys, username)
			}
		case effect.KindSudoExec:
			if cmdStr, ok := e.Payload["command"].(string); ok {
				runLoop(sys, sh, executeAsRoot(sys, sh, cmdStr))
			}
		case effect.KindExecuteCommands:
			for _, c := range stringsSlice(e.Payload["commands"]) {
				runLoop(sys, sh, sh.Execute(c))
			}
		case effect.KindExecuteScript:
			for _, c := range stringsSlice(e.Payload["commands"]) {
				runLoop(sys, sh, sh.Execute(c))
			}
		case effect.KindDisplayProse, effect.KindDumpScreenText:
			if text, ok := e.Payload["text"].(string); ok {
				fmt.Println(text)
			}
		}
	}
	return true
}

func stringsSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func confirmPrompt(e effect.Effect) bool {
	for _, line := range stringsSlice(e.Payload["message"]) {
		fmt.Println(line)
	}
	fmt.Print("[y/N] ")
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(strings.TrimSpace(answer), "y") || strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// executeAsRoot prompts for the caller's sudo password out-of-band (hidden
// via x/term) then re-dispatches the pending command under a root actor,
// mirroring spec.md's "sudo: 1 line" interactive-password contract without
// threading the password through the command's own stdin.
func executeAsRoot(sys *commands.System, sh *shell.Shell, cmdLine string) effect.Result {
	fmt.Print("[sudo] password: ")
	pass, _ := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if !sys.Identity.Users.VerifyPassword(sh.Session.User, string(pass)) {
		return effect.Fail("sudo: authentication failure")
	}
	rootActor := sys.ActorFor("root")
	elevated := &shell.Shell{FS: sh.FS, Session: sh.Session, Actor: rootActor, Dispatch: sh.Dispatch}
	return elevated.Execute(cmdLine)
}

func changePassword(sys *commands.System, username string) {
	newPass, err := readHiddenPassword("New password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "passwd:", err)
		return
	}
	confirmPass, err := readHiddenPassword("Confirm password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "passwd:", err)
		return
	}
	if newPass != confirmPass {
		fmt.Fprintln(os.Stderr, "passwd: passwords do not match")
		return
	}
	if err := sys.Identity.Users.SetPassword(username, newPass); err != nil {
		fmt.Fprintln(os.Stderr, "passwd:", err)
		return
	}
	_ = sys.Audit.Log(username, "passwd", "password changed")
	fmt.Println("password updated")
}

func printResult(result effect.Result) {
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	if !result.Success && result.Err != nil {
		fmt.Fprintln(os.Stderr, result.Err.Message)
		if result.Err.Suggestion != "" {
			fmt.Fprintln(os.Stderr, "  "+result.Err.Suggestion)
		}
	}
}
