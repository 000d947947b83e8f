package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [command...]",
	Short: "Run a single command line non-interactively and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
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

	line := strings.Join(args, " ")
	result := sh.Execute(line)
	runLoop(sys, sh, result)

	if err := saveIdentity(sys); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Err.Message)
	}
	return nil
}
