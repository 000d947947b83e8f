package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aedmark/shellos/pkg/commands"
	"github.com/aedmark/shellos/pkg/config"
	"github.com/aedmark/shellos/pkg/identity"
	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/spf13/viper"
)

const (
	vfsStateFile   = "vfs.json"
	identityFile   = "identity.json"
	defaultVersion = "5.0"
)

// identitySnapshot is the on-disk shape for users/groups, independent of
// pkg/bridge's checksummed backup envelope (that one is for the `backup`
// command's export format, this one is the host's own save file).
type identitySnapshot struct {
	Users  map[string]*identity.User `json:"users"`
	Groups map[string][]string       `json:"groups"`
}

func dataDir() (string, error) {
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shellos"), nil
}

// bootSystem loads (or initializes) the persisted VFS and identity state
// under the data directory and wires a commands.System around it, matching
// the teacher's cmd_run.go pattern of resolving viper-bound settings once
// at the top of a subcommand's RunE.
func bootSystem(host string, bootedAt int64) (*commands.System, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	cfg, err := config.Load(viper.GetString("config_path"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	vfsPath := filepath.Join(dir, vfsStateFile)
	fs := vfs.New(func(snapshot string) error {
		return os.WriteFile(vfsPath, []byte(snapshot), 0o600)
	})
	if raw, err := os.ReadFile(vfsPath); err == nil {
		if err := fs.LoadStateFromJSON(raw); err != nil {
			return nil, fmt.Errorf("loading persisted filesystem: %w", err)
		}
	}

	sys := commands.NewSystem(fs, cfg, host, bootedAt)

	identPath := filepath.Join(dir, identityFile)
	if raw, err := os.ReadFile(identPath); err == nil {
		var snap identitySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			sys.Identity.Users.LoadUsers(snap.Users)
			sys.Identity.Groups.LoadGroups(snap.Groups)
		}
	}

	return sys, nil
}

// saveIdentity persists the user/group tables; the VFS persists itself on
// every mutation via its SaveFunc, but identity has no such hook.
func saveIdentity(sys *commands.System) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}
	snap := identitySnapshot{
		Users:  sys.Identity.Users.AllUsers(),
		Groups: sys.Identity.Groups.AllGroups(),
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, identityFile), raw, 0o600)
}
