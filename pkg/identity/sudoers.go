package identity

import (
	"strings"

	"github.com/aedmark/shellos/pkg/vfs"
)

const sudoersPath = "/etc/sudoers"

// SudoManager re-parses /etc/sudoers on every check so that live visudo
// edits take effect immediately, matching original_source's
// "_get_config re-parses every time" comment.
type SudoManager struct {
	fs *vfs.FS
}

func NewSudoManager(fs *vfs.FS) *SudoManager {
	return &SudoManager{fs: fs}
}

type sudoersConfig struct {
	users  map[string][]string
	groups map[string][]string
}

func parseSudoers(content string) sudoersConfig {
	cfg := sudoersConfig{users: map[string][]string{}, groups: map[string][]string{}}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		entity := parts[0]
		perms := parts[1:]

		allowed := []string{}
		allFound := false
		for _, p := range perms {
			if strings.Contains(p, "ALL") {
				allFound = true
				break
			}
		}
		if allFound {
			allowed = []string{"ALL"}
		} else {
			allowed = strings.Split(perms[len(perms)-1], ",")
		}

		if strings.HasPrefix(entity, "%") {
			cfg.groups[entity[1:]] = allowed
		} else {
			cfg.users[entity] = allowed
		}
	}
	return cfg
}

func (s *SudoManager) loadConfig() sudoersConfig {
	node, err := s.fs.GetNode(sudoersPath, true)
	if err != nil || node == nil {
		return sudoersConfig{users: map[string][]string{}, groups: map[string][]string{}}
	}
	return parseSudoers(string(node.Content))
}

func allowSetContains(allowSet []string, cmdName string) bool {
	for _, allowed := range allowSet {
		if allowed == "ALL" || allowed == cmdName {
			return true
		}
	}
	return false
}

// CanUserRunCommand implements spec.md's §4.4 resolution order: root always
// may; then the user's own rule; then any of their groups' rules.
func (s *SudoManager) CanUserRunCommand(username string, userGroups []string, cmdName string) bool {
	if username == "root" {
		return true
	}
	cfg := s.loadConfig()

	if perms, ok := cfg.users[username]; ok && allowSetContains(perms, cmdName) {
		return true
	}
	for _, group := range userGroups {
		if perms, ok := cfg.groups[group]; ok && allowSetContains(perms, cmdName) {
			return true
		}
	}
	return false
}
