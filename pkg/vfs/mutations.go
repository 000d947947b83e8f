package vfs

import "strings"

// WriteFile creates or overwrites a file at path. If the file does not
// exist, the parent directory must grant the actor write permission; if it
// exists, the file itself must. The "collaborative directory" rule governs
// ownership of newly created files: a parent whose mode grants its group
// write and execute but denies other (spec.md's rwxrwx--- shape) hands the
// new file to the parent's group at 0660 instead of the actor's primary
// group at 0644.
func (fs *FS) WriteFile(path string, content []byte, actor Actor) error {
	fs.mu.Lock()
	abs := normalize(fs.currentPath, path)
	parentPath := parentOf(abs)
	name := baseOf(abs)

	parent, _, err := fs.walk(parentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if parent.Kind != KindDirectory {
		fs.mu.Unlock()
		return ErrNotADirectory
	}

	existing, hasExisting := parent.Children[name]
	if hasExisting {
		if existing.Kind == KindDirectory {
			fs.mu.Unlock()
			return ErrIsADirectory
		}
		if !checkPermission(actor, existing, PermWrite) {
			warded := fs.isWarded(abs)
			fs.mu.Unlock()
			if warded {
				return &WardError{Path: name}
			}
			return ErrPermissionDenied
		}
		existing.Content = content
		touch(existing)
		fs.mu.Unlock()
		fs.persist()
		return nil
	}

	if !checkPermission(actor, parent, PermWrite) {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}

	owner, group, mode := actor.Name, primaryGroup(actor), uint16(0o644)
	if isCollaborative(parent.Mode) {
		owner, group, mode = actor.Name, parent.Group, 0o660
	}
	node := newFileNode(owner, group, mode, content, nowUTC())
	parent.Children[name] = node
	fs.mu.Unlock()
	fs.persist()
	return nil
}

func primaryGroup(actor Actor) string {
	if len(actor.Groups) > 0 {
		return actor.Groups[0]
	}
	return actor.Name
}

// CreateDirectory makes a new directory at path, applying the same
// collaborative-directory ownership rule as WriteFile.
func (fs *FS) CreateDirectory(path string, actor Actor) error {
	fs.mu.Lock()
	abs := normalize(fs.currentPath, path)
	parentPath := parentOf(abs)
	name := baseOf(abs)

	parent, _, err := fs.walk(parentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if parent.Kind != KindDirectory {
		fs.mu.Unlock()
		return ErrNotADirectory
	}
	if _, exists := parent.Children[name]; exists {
		fs.mu.Unlock()
		return ErrFileExists
	}
	if !checkPermission(actor, parent, PermWrite) {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}

	owner, group, mode := actor.Name, primaryGroup(actor), uint16(0o755)
	if isCollaborative(parent.Mode) {
		group, mode = parent.Group, 0o775
	}
	parent.Children[name] = newDirNode(owner, group, mode, nowUTC())
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// Ln creates a symlink at path pointing at target. The link itself is
// always created with 0o777, matching Unix convention that symlink
// permissions are meaningless (the target's permissions govern access).
func (fs *FS) Ln(path, target string, actor Actor) error {
	fs.mu.Lock()
	abs := normalize(fs.currentPath, path)
	parentPath := parentOf(abs)
	name := baseOf(abs)

	parent, _, err := fs.walk(parentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if parent.Kind != KindDirectory {
		fs.mu.Unlock()
		return ErrNotADirectory
	}
	if _, exists := parent.Children[name]; exists {
		fs.mu.Unlock()
		return ErrFileExists
	}
	if !checkPermission(actor, parent, PermWrite) {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}
	parent.Children[name] = newSymlinkNode(actor.Name, primaryGroup(actor), target, nowUTC())
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// Remove unlinks a file, empty directory, or symlink. recursive allows
// removing a non-empty directory and everything beneath it.
func (fs *FS) Remove(path string, actor Actor, recursive bool) error {
	fs.mu.Lock()
	abs := normalize(fs.currentPath, path)
	if abs == "/" {
		fs.mu.Unlock()
		return ErrRemoveRoot
	}
	parentPath := parentOf(abs)
	name := baseOf(abs)

	parent, _, err := fs.walk(parentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	target, exists := parent.Children[name]
	if !exists {
		fs.mu.Unlock()
		return ErrFileNotFound
	}
	if target.Kind == KindDirectory && len(target.Children) > 0 && !recursive {
		fs.mu.Unlock()
		return ErrNotEmpty
	}
	if !checkPermission(actor, parent, PermWrite) {
		warded := fs.isWarded(abs)
		fs.mu.Unlock()
		if warded {
			return &WardError{Path: name}
		}
		return ErrPermissionDenied
	}
	delete(parent.Children, name)
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// RenameNode moves/renames a node from src to dst, matching mv's semantics:
// the destination's parent must grant write, and if dst already exists as a
// directory, src is moved inside it keeping its basename.
func (fs *FS) RenameNode(src, dst string, actor Actor) error {
	fs.mu.Lock()
	absSrc := normalize(fs.currentPath, src)
	if absSrc == "/" {
		fs.mu.Unlock()
		return ErrRemoveRoot
	}
	srcParentPath := parentOf(absSrc)
	srcName := baseOf(absSrc)

	srcParent, _, err := fs.walk(srcParentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	node, exists := srcParent.Children[srcName]
	if !exists {
		fs.mu.Unlock()
		return ErrFileNotFound
	}
	if !checkPermission(actor, srcParent, PermWrite) {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}

	absDst := normalize(fs.currentPath, dst)
	dstParentPath := parentOf(absDst)
	dstName := baseOf(absDst)

	if dstExistingNode, _, dErr := fs.walk(absDst, true, map[string]bool{}, &actor); dErr == nil && dstExistingNode.Kind == KindDirectory {
		dstParentPath = absDst
		dstName = srcName
	}

	dstParent, _, err := fs.walk(dstParentPath, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if dstParent.Kind != KindDirectory {
		fs.mu.Unlock()
		return ErrNotADirectory
	}
	if !checkPermission(actor, dstParent, PermWrite) {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}
	if _, clash := dstParent.Children[dstName]; clash && (srcParentPath != dstParentPath || srcName != dstName) {
		fs.mu.Unlock()
		return ErrFileExists
	}

	delete(srcParent.Children, srcName)
	touch(node)
	dstParent.Children[dstName] = node
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// Chmod changes a node's permission bits. Only the owner or root may do so.
func (fs *FS) Chmod(path string, mode uint16, actor Actor) error {
	fs.mu.Lock()
	abs := normalize(fs.currentPath, path)
	node, resolvedPath, err := fs.walk(abs, true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if !actor.isRoot() && node.Owner != actor.Name {
		warded := fs.isWarded(resolvedPath)
		fs.mu.Unlock()
		if warded {
			return &WardError{Path: baseOf(resolvedPath)}
		}
		return ErrPermissionDenied
	}
	node.Mode = mode & 0o777
	touch(node)
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// Chown changes a node's owner. Only root may do so, matching Unix (non-root
// chown is deliberately not supported; spec.md names no multi-user login
// boundary that would require it).
func (fs *FS) Chown(path, newOwner string, actor Actor) error {
	fs.mu.Lock()
	if !actor.isRoot() {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}
	node, _, err := fs.walk(normalize(fs.currentPath, path), true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	node.Owner = newOwner
	touch(node)
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// Chgrp changes a node's group. The owner or root may do so.
func (fs *FS) Chgrp(path, newGroup string, actor Actor) error {
	fs.mu.Lock()
	node, _, err := fs.walk(normalize(fs.currentPath, path), true, map[string]bool{}, &actor)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	if !actor.isRoot() && node.Owner != actor.Name {
		fs.mu.Unlock()
		return ErrPermissionDenied
	}
	node.Group = newGroup
	touch(node)
	fs.mu.Unlock()
	fs.persist()
	return nil
}

// CalculateNodeSize returns the total byte size of a node: a file's content
// length, or the recursive sum of a directory's descendants.
func (fs *FS) CalculateNodeSize(path string) (int64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	node, _, err := fs.resolveLocked(path, true, nil)
	if err != nil {
		return 0, err
	}
	return nodeSize(node), nil
}

func nodeSize(n *Node) int64 {
	switch n.Kind {
	case KindFile:
		return int64(len(n.Content))
	case KindSymlink:
		return int64(len(n.Target))
	case KindDirectory:
		var total int64
		for _, child := range n.Children {
			total += nodeSize(child)
		}
		return total
	}
	return 0
}

// ListChildren returns the child names of a directory node in no
// particular order (callers such as ls and glob expansion sort them).
func (fs *FS) ListChildren(path string, actor Actor) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	node, _, err := fs.resolveLocked(path, true, &actor)
	if err != nil {
		return nil, err
	}
	if node.Kind != KindDirectory {
		return nil, ErrNotADirectory
	}
	if !checkPermission(actor, node, PermRead) {
		return nil, ErrPermissionDenied
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	return names, nil
}

func isAbs(p string) bool { return strings.HasPrefix(p, "/") }
