package vfs

import "fmt"

// FsckReport summarizes what a filesystem integrity pass found (and, in
// repair mode, fixed).
type FsckReport struct {
	Issues  []string
	Changed bool
}

// Fsck walks the whole tree looking for orphaned owners/groups (referring to
// a user or group that no longer exists), dangling symlinks, and missing
// home directories for known users, plus malformed /etc/agenda.json entries
// (see ward.go's validateAgendaLocked). knownUser/knownGroup let the identity
// package supply the ground truth without vfs importing it back. When
// repair is true, orphaned owner/group fields are reassigned to "root",
// dangling symlinks are unlinked, and missing home directories are created.
func (fs *FS) Fsck(knownUser, knownGroup func(name string) bool, homeUsers []string, repair bool) FsckReport {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	report := FsckReport{}
	fs.fsckWalk("/", nil, "", fs.root, knownUser, knownGroup, repair, &report)
	report.Issues = append(report.Issues, fs.validateAgendaLocked()...)

	for _, user := range homeUsers {
		homePath := "/home/" + user
		if _, _, err := fs.walk(homePath, true, map[string]bool{}, nil); err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("missing home directory for %s", user))
			if repair {
				homeDir, _, hErr := fs.walk("/home", true, map[string]bool{}, nil)
				if hErr == nil && homeDir.Kind == KindDirectory {
					homeDir.Children[user] = newDirNode(user, user, 0o755, nowUTC())
					report.Changed = true
				}
			}
		}
	}

	if report.Changed && fs.saveFn != nil {
		_ = fs.saveFn(fs.saveStateLocked())
	}
	return report
}

// fsckWalk inspects node, located at path as parent's child entry under name
// (parent is nil only for the root node, which can never be a dangling
// symlink itself). Repair mode fixes orphaned owner/group fields in place
// and, for dangling symlinks, unlinks the entry from parent.Children so a
// second repair pass converges to no issues, per spec.md §8's fsck
// idempotence property.
func (fs *FS) fsckWalk(path string, parent *Node, name string, node *Node, knownUser, knownGroup func(name string) bool, repair bool, report *FsckReport) {
	if node.Owner != "" && knownUser != nil && !knownUser(node.Owner) {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: owner %q does not exist", path, node.Owner))
		if repair {
			node.Owner = "root"
			report.Changed = true
		}
	}
	if node.Group != "" && knownGroup != nil && !knownGroup(node.Group) {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: group %q does not exist", path, node.Group))
		if repair {
			node.Group = "root"
			report.Changed = true
		}
	}

	switch node.Kind {
	case KindSymlink:
		targetPath := normalize(parentOf(path), node.Target)
		if _, _, err := fs.walk(targetPath, true, map[string]bool{}, nil); err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: dangling symlink to %q", path, node.Target))
			if repair && parent != nil {
				delete(parent.Children, name)
				report.Changed = true
			}
		}
	case KindDirectory:
		for childName, child := range node.Children {
			fs.fsckWalk(joinClean(path, "/"+childName), node, childName, child, knownUser, knownGroup, repair, report)
		}
	}
}
