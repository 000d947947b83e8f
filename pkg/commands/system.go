package commands

import (
	"github.com/aedmark/shellos/pkg/audit"
	"github.com/aedmark/shellos/pkg/config"
	"github.com/aedmark/shellos/pkg/identity"
	"github.com/aedmark/shellos/pkg/session"
	"github.com/aedmark/shellos/pkg/shell"
	"github.com/aedmark/shellos/pkg/story"
	"github.com/aedmark/shellos/pkg/vfs"
)

// System bundles every singleton manager a command's run function may
// need: the filesystem, the identity layer (users/groups/sudoers), the
// audit sink, the story VCS, and bound configuration. This is the
// "SystemContext handle" spec.md §9's DESIGN NOTES calls for in place of
// true package-level globals, threaded explicitly into every dispatch so
// tests can construct an isolated instance per case.
type System struct {
	FS       *vfs.FS
	Identity *identity.System
	Audit    *audit.LineSink
	Story    *story.Manager
	Config   config.CoreConfig
	Registry *Registry
	Host     string
	BootedAt int64
}

// NewSystem wires a fresh System around an already-constructed FS,
// pointing the identity layer, audit sink, and story manager at it.
func NewSystem(fs *vfs.FS, cfg config.CoreConfig, host string, bootedAt int64) *System {
	return &System{
		FS:       fs,
		Identity: identity.NewSystem(fs),
		Audit:    audit.NewLineSink(fs),
		Story:    story.NewManager(fs),
		Config:   cfg,
		Registry: Default,
		Host:     host,
		BootedAt: bootedAt,
	}
}

// NewSession builds a session.Session for username, rooted at their home
// directory, with the job table and aliases session.New seeds by default.
func (s *System) NewSession(username string, startedAt int64) *session.Session {
	return session.New(username, s.Host, startedAt)
}

// Shell builds a pkg/shell.Shell bound to this system's filesystem and
// registry, for the given session and actor identity.
func (s *System) Shell(sess *session.Session, actor vfs.Actor) *shell.Shell {
	sh := &shell.Shell{
		FS:      s.FS,
		Session: sess,
		Actor:   actor,
	}
	sh.Dispatch = s.Registry.Dispatch(s)
	return sh
}

// ActorFor resolves a vfs.Actor for username through the identity system's
// effective-group computation.
func (s *System) ActorFor(username string) vfs.Actor {
	return s.Identity.ActorFor(username)
}
