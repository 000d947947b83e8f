package vfs

import "time"

// newDefaultRoot builds the fresh filesystem tree every reset()/first-time
// setup starts from, mirroring original_source's _initialize_default_filesystem.
func newDefaultRoot() *Node {
	now := time.Now().UTC()

	root := newDirNode("root", "root", 0o755, now)

	home := newDirNode("root", "root", 0o755, now)
	home.Children["root"] = newDirNode("root", "root", 0o755, now)
	home.Children["Guest"] = newDirNode("Guest", "Guest", 0o755, now)

	etc := newDirNode("root", "root", 0o755, now)
	etc.Children["ai.conf"] = newFileNode("root", "root", 0o644,
		[]byte("{\n  \"provider\": \"ollama\",\n  \"model\": null\n}"), now)
	etc.Children["sudoers"] = newFileNode("root", "root", 0o440,
		[]byte("# /etc/sudoers\n"), now)
	etc.Children["themes"] = newDirNode("root", "root", 0o755, now)
	etc.Children["projects"] = newDirNode("root", "root", 0o755, now)

	varDir := newDirNode("root", "root", 0o755, now)
	varDir.Children["log"] = newDirNode("root", "root", 0o755, now)

	root.Children["home"] = home
	root.Children["etc"] = etc
	root.Children["var"] = varDir

	return root
}
