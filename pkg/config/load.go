package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load builds a viper instance seeded with Defaults(), then layers env
// vars (SHELLOS_MAX_VFS_SIZE, etc.) and an optional config file on top,
// matching the teacher's cmd_run.go viper-binding shape.
func Load(configPath string) (CoreConfig, error) {
	v := viper.New()
	defaults := Defaults()

	v.SetDefault("max_vfs_size", defaults.MaxVFSSize)
	v.SetDefault("history_cap", defaults.HistoryCap)
	v.SetDefault("kdf_iterations", defaults.KDFIterations)
	v.SetDefault("ai_timeout", defaults.AITimeout)
	v.SetDefault("reserved_usernames", defaults.ReservedUsernames)

	v.SetEnvPrefix("shellos")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return CoreConfig{}, err
		}
	}

	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}
