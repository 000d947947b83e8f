package vfs

import "encoding/json"

// saveStateLocked serializes the tree to its wire JSON form. Caller must
// hold at least a read lock.
func (fs *FS) saveStateLocked() string {
	wire := fs.root.toWire()
	out, err := json.Marshal(wire)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// SaveStateToJSON returns the current tree serialized to the wire shape
// used by the host bridge's persistence layer.
func (fs *FS) SaveStateToJSON() string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.saveStateLocked()
}

// LoadStateFromJSON replaces the tree with the one decoded from raw. On any
// decode failure the existing tree is left untouched and an error is
// returned; callers that want a fresh start on corruption should call
// Reset() themselves, mirroring original_source's load_state behavior of
// falling back to _initialize_default_filesystem only at the call site.
func (fs *FS) LoadStateFromJSON(raw []byte) error {
	var wire wireNode
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ErrInvalidPath
	}
	node, _, err := wire.toNode()
	if err != nil {
		return err
	}
	if node.Kind != KindDirectory {
		return ErrNotADirectory
	}
	fs.mu.Lock()
	fs.root = node
	fs.currentPath = "/"
	fs.mu.Unlock()
	return nil
}
