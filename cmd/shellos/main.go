// Command shellos boots the shell-OS emulator: a single persisted virtual
// filesystem plus identity store, driven either interactively (the "repl"
// subcommand, the default) or as a one-shot script runner ("exec").
// Grounded on the teacher's cmd/matchlock main.go + cmd_run.go/cmd_list.go
// cobra.Command/viper wiring, collapsed here into one self-consistent
// rootCmd rather than the teacher's os.Args switch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "shellos",
	Short: "A persisted, permission-aware shell-OS emulator",
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the persisted VFS/identity state (default: $HOME/.shellos)")
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	rootCmd.PersistentFlags().String("config", "", "path to a shellos config file")
	viper.BindPFlag("config_path", rootCmd.PersistentFlags().Lookup("config"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
