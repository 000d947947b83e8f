package session

// Session bundles the per-connection state the executor threads through
// every command invocation: the env frame stack, aliases, history, and the
// job table. CurrentPath mirrors the VFS's own notion of cwd so effects
// like change_directory can be applied to the host's view without the
// session needing to reach back into pkg/vfs.
type Session struct {
	Env         *EnvStack
	Aliases     *AliasTable
	History     *History
	Jobs        *JobTable
	CurrentPath string
	User        string
	Host        string
	StartedAt   int64 // unix seconds, stamped by the caller at session creation
}

func New(user, host string, startedAt int64) *Session {
	return &Session{
		Env:         NewEnvStack(user, host),
		Aliases:     NewAliasTable(),
		History:     NewHistory(),
		Jobs:        NewJobTable(),
		CurrentPath: "/home/" + user,
		User:        user,
		Host:        host,
		StartedAt:   startedAt,
	}
}

// PushUser enters a new identity frame, as su does.
func (s *Session) PushUser(user string) {
	s.Env.Push(user, s.Host)
	s.User = user
}

// PopUser exits the current identity frame, as logout does, restoring the
// prior frame's USER value.
func (s *Session) PopUser() error {
	if err := s.Env.Pop(); err != nil {
		return err
	}
	if u, ok := s.Env.Get("USER"); ok {
		s.User = u
	}
	return nil
}
