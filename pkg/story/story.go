// Package story implements the narrative-flavored snapshot VCS spec.md
// §4.7 describes: begin/save/log/rewind over a hidden .story/ directory.
// Grounded on original_source/resources/core/story_manager.py for exact
// control flow (nearest-ancestor .story lookup, sha1-of-timestamp snapshot
// IDs, prepend-to-log ordering) and on matchlock's
// pkg/sandbox/overlay_snapshot.go for the recursive tree-copy shape,
// adapted from real-OS file operations to pkg/vfs tree operations.
package story

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aedmark/shellos/pkg/vfs"
)

const storyDirName = ".story"

// LogEntry is one chapter in .story/log.json, newest first.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Snapshot  string `json:"snapshot"`
}

type Manager struct {
	fs *vfs.FS
}

func NewManager(fs *vfs.FS) *Manager {
	return &Manager{fs: fs}
}

// findStoryRoot walks from absPath up to "/" looking for a .story
// directory, matching story_manager.py's _get_story_path search order
// (ancestors first, root checked explicitly last as a boundary case).
func (m *Manager) findStoryRoot(absPath string) (string, bool) {
	current := absPath
	for {
		candidate := path.Join(current, storyDirName)
		if _, err := m.fs.GetNode(candidate, true); err == nil {
			return candidate, true
		}
		if current == "/" {
			return "", false
		}
		current = path.Dir(current)
	}
}

// Begin initializes a new story at exactly cwd, failing if one already
// exists there (ancestor .story directories do not block a nested begin).
func (m *Manager) Begin(cwd string, actor vfs.Actor) error {
	storyPath := path.Join(cwd, storyDirName)
	if _, err := m.fs.GetNode(storyPath, true); err == nil {
		return ErrAlreadyBegun
	}
	if err := m.fs.CreateDirectory(storyPath, actor); err != nil {
		return err
	}
	if err := m.fs.CreateDirectory(path.Join(storyPath, "snapshots"), actor); err != nil {
		return err
	}
	if err := m.fs.WriteFile(path.Join(storyPath, "log.json"), []byte("[]"), actor); err != nil {
		return err
	}
	return m.fs.Chmod(storyPath, 0o770, actor)
}

// trackedFiles recursively collects every non-hidden file under workDir,
// skipping the .story directory itself and any directory whose name
// starts with '.'.
func (m *Manager) trackedFiles(workDir string) []string {
	var tracked []string
	var recurse func(p string)
	recurse = func(p string) {
		node, err := m.fs.GetNode(p, true)
		if err != nil {
			return
		}
		switch node.Kind {
		case vfs.KindDirectory:
			if path.Base(p) == storyDirName {
				return
			}
			for name := range node.Children {
				if strings.HasPrefix(name, ".") {
					continue
				}
				recurse(path.Join(p, name))
			}
		case vfs.KindFile:
			tracked = append(tracked, p)
		}
	}
	recurse(workDir)
	return tracked
}

func (m *Manager) mkdirAll(dir string, actor vfs.Actor) error {
	if dir == "/" {
		return nil
	}
	if _, err := m.fs.GetNode(dir, true); err == nil {
		return nil
	}
	if err := m.mkdirAll(path.Dir(dir), actor); err != nil {
		return err
	}
	if err := m.fs.CreateDirectory(dir, actor); err != nil && err != vfs.ErrFileExists {
		return err
	}
	return nil
}

// Save snapshots every tracked file under workDir into a new
// snapshots/<id>/ directory and prepends a log entry, returning the new
// snapshot id.
func (m *Manager) Save(workDir, message string, actor vfs.Actor) (string, error) {
	storyPath, ok := m.findStoryRoot(workDir)
	if !ok {
		return "", ErrNotAStoryRepo
	}
	tracked := m.trackedFiles(workDir)
	if len(tracked) == 0 {
		return "", ErrNoFilesToSave
	}

	timestamp := fmt.Sprintf("%d", time.Now().UnixNano())
	sum := sha1.Sum([]byte(timestamp))
	snapshotID := hex.EncodeToString(sum[:])[:10]
	snapshotDir := path.Join(storyPath, "snapshots", snapshotID)

	if err := m.fs.CreateDirectory(snapshotDir, actor); err != nil {
		return "", err
	}
	for _, filePath := range tracked {
		rel := strings.TrimPrefix(strings.TrimPrefix(filePath, workDir), "/")
		destPath := path.Join(snapshotDir, rel)
		if err := m.mkdirAll(path.Dir(destPath), actor); err != nil {
			return "", err
		}
		node, err := m.fs.GetNode(filePath, true)
		if err != nil {
			continue
		}
		if err := m.fs.WriteFile(destPath, node.Content, actor); err != nil {
			return "", err
		}
	}

	if err := m.appendLogEntry(storyPath, message, snapshotID, actor); err != nil {
		return "", err
	}
	return snapshotID, nil
}

func (m *Manager) appendLogEntry(storyPath, message, snapshotID string, actor vfs.Actor) error {
	logPath := path.Join(storyPath, "log.json")
	node, err := m.fs.GetNode(logPath, true)
	if err != nil {
		return ErrLogMissing
	}
	var entries []LogEntry
	if len(node.Content) > 0 {
		_ = json.Unmarshal(node.Content, &entries)
	}
	entry := LogEntry{
		ID:        snapshotID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
		Author:    actor.Name,
		Snapshot:  snapshotID,
	}
	entries = append([]LogEntry{entry}, entries...)
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return m.fs.WriteFile(logPath, raw, actor)
}

// Log returns the chapter history for the story enclosing cwd, newest
// first.
func (m *Manager) Log(cwd string) ([]LogEntry, error) {
	storyPath, ok := m.findStoryRoot(cwd)
	if !ok {
		return nil, ErrNotAStoryRepo
	}
	node, err := m.fs.GetNode(path.Join(storyPath, "log.json"), true)
	if err != nil {
		return nil, ErrLogMissing
	}
	var entries []LogEntry
	if len(node.Content) > 0 {
		if err := json.Unmarshal(node.Content, &entries); err != nil {
			return nil, fmt.Errorf("could not parse log.json: %w", err)
		}
	}
	return entries, nil
}

// Rewind deletes every currently tracked file under workDir, then mirrors
// snapshots/<id>/ back into the work tree. Callers are responsible for
// gating this behind a confirmation effect, per spec.md §4.7.
func (m *Manager) Rewind(workDir, snapshotID string, actor vfs.Actor) error {
	storyPath, ok := m.findStoryRoot(workDir)
	if !ok {
		return ErrNotAStoryRepo
	}
	snapshotDir := path.Join(storyPath, "snapshots", snapshotID)
	if _, err := m.fs.GetNode(snapshotDir, true); err != nil {
		return ErrSnapshotNotFound
	}

	for _, filePath := range m.trackedFiles(workDir) {
		_ = m.fs.Remove(filePath, actor, false)
	}

	var recurseCopy func(snapPath, workPath string) error
	recurseCopy = func(snapPath, workPath string) error {
		node, err := m.fs.GetNode(snapPath, true)
		if err != nil {
			return nil
		}
		switch node.Kind {
		case vfs.KindDirectory:
			if _, err := m.fs.GetNode(workPath, true); err != nil {
				if cErr := m.fs.CreateDirectory(workPath, actor); cErr != nil && cErr != vfs.ErrFileExists {
					return cErr
				}
			}
			for name := range node.Children {
				if err := recurseCopy(path.Join(snapPath, name), path.Join(workPath, name)); err != nil {
					return err
				}
			}
		case vfs.KindFile:
			if err := m.fs.WriteFile(workPath, node.Content, actor); err != nil {
				return err
			}
		}
		return nil
	}

	return recurseCopy(snapshotDir, workDir)
}
