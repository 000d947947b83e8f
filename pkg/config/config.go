// Package config defines CoreConfig, the settings struct loaded from
// defaults, environment variables and an optional config file. Only its
// MaxVFSSize field is read by another package (the df command); see
// CoreConfig for the fields that duplicate package constants. Grounded on the teacher's cmd_run.go, which
// binds its run-time knobs through spf13/viper rather than hardcoding
// them.
package config

import "time"

// CoreConfig holds every tunable named across spec.md: the VFS size cap,
// history bound, KDF iteration count, the AI request timeout, and the
// reserved username set. Only MaxVFSSize is consulted at run time:
// pkg/session, pkg/identity and pkg/cryptutil use their own constants for
// the history bound, the reserved usernames and the KDF iteration count,
// and nothing reads AITimeout, so overriding those fields has no effect.
type CoreConfig struct {
	MaxVFSSize        int64         `mapstructure:"max_vfs_size"`
	HistoryCap        int           `mapstructure:"history_cap"`
	KDFIterations     int           `mapstructure:"kdf_iterations"`
	AITimeout         time.Duration `mapstructure:"ai_timeout"`
	ReservedUsernames []string      `mapstructure:"reserved_usernames"`
}

// Defaults returns the configuration spec.md names when nothing overrides
// it: no VFS size cap enforced beyond a generous ceiling, a 50-entry
// history ring, 100k PBKDF2 iterations, and a 20s AI timeout.
func Defaults() CoreConfig {
	return CoreConfig{
		MaxVFSSize:        64 * 1024 * 1024,
		HistoryCap:        50,
		KDFIterations:     100000,
		AITimeout:         20 * time.Second,
		ReservedUsernames: []string{"guest", "root", "admin", "system"},
	}
}
