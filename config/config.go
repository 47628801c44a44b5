package config

import (
	configUtil "github.com/fox-one/pkg/config"

	"lendhub/core"
)

// Config alias of core.Config
type Config = core.Config

// Load load config file, env vars prefixed with LENDHUB_ override it
func Load(configFile string, config *Config) error {
	configUtil.AutomaticLoadEnv("LENDHUB")
	if err := configUtil.LoadYaml(configFile, config); err != nil {
		return err
	}

	return nil
}
