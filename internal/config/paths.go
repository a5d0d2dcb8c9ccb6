package config

import (
	"os"
	"path/filepath"

	"github.com/quocvuong92/zor/internal/constants"
)

// GlobalDir returns the directory holding the global config and history.
// ZOR_CONFIG_DIR wins, then $XDG_CONFIG_HOME/zor, then ~/.config/zor.
func GlobalDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", constants.AppName), nil
}

// GlobalConfigPath returns the global config file inside dir
func GlobalConfigPath(dir string) string {
	return filepath.Join(dir, constants.GlobalConfigFile)
}

// ProjectConfigPath returns the project config file inside root
func ProjectConfigPath(root string) string {
	return filepath.Join(root, constants.ProjectConfigFile)
}
