package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigDirEnv overrides the config directory. Tests and scripted runs point
// it at a scratch dir instead of the user's home.
const ConfigDirEnv = "LINER_CONFIG_DIR"

const configDirName = ".float-liner"

// ConfigDir resolves the directory holding the workspace database and the
// persisted layout. The directory is not created here; Open does that.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(ConfigDirEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}
