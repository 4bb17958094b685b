package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir resolves where terrier keeps its store and WAL when no
// data directory is given. TERRIER_DATA_DIR wins over the platform
// convention; the relative ./data fallback keeps ad-hoc runs working when
// no home directory can be resolved.
func DefaultDataDir() string {
	if dir := os.Getenv("TERRIER_DATA_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, "Library", "Application Support", "terrier")
		}
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "terrier")
		}
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "terrier")
		}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, ".local", "share", "terrier")
		}
	}
	return "./data"
}
