package vfs

const (
	PermRead    = 4
	PermWrite   = 2
	PermExecute = 1
)

// checkPermission implements spec.md §4.1's check order: root bypass ->
// owner bits -> any-effective-group match -> other bits.
func checkPermission(actor Actor, node *Node, required uint16) bool {
	if actor.isRoot() {
		return true
	}
	if node == nil {
		return false
	}
	mode := node.Mode
	ownerPerms := (mode >> 6) & 7
	groupPerms := (mode >> 3) & 7
	otherPerms := mode & 7

	if node.Owner == actor.Name && (ownerPerms&required) == required {
		return true
	}
	if actor.inGroup(node.Group) && (groupPerms&required) == required {
		return true
	}
	if (otherPerms & required) == required {
		return true
	}
	return false
}

// isCollaborative reports whether parent's mode grants its group both write
// and execute while denying those bits to other (an rwxrwx----like mode).
func isCollaborative(parentMode uint16) bool {
	return parentMode&0o030 == 0o030 && parentMode&0o007 == 0
}
