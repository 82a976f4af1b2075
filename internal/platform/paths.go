package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/nebulaboard/internal/config"
)

// DataDirName is the collection directory inside a profile.
const DataDirName = "data"

// IsDevRun reports whether the binary runs from `go run` or `go test`.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveProfileDir picks the profile directory.
// An empty userPath means the user config dir (e.g. ~/.config/<app>).
// With forceTemp, paths outside the system temp dir are re-rooted under
// <tmp>/<app>-dev so development runs never touch the real profile.
func ResolveProfileDir(userPath, app string, forceTemp bool) (string, error) {
	if !forceTemp {
		if userPath != "" {
			return filepath.Clean(userPath), nil
		}
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate user config dir: %w", err)
		}
		return filepath.Join(base, app), nil
	}

	clean := filepath.Clean(userPath)
	if userPath != "" {
		if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") {
			return clean, nil
		}
	}

	name := "default"
	if userPath != "" && clean != "." {
		name = filepath.Base(clean)
	}
	return filepath.Join(os.TempDir(), app+"-dev", name), nil
}

// FindConfig looks for config.DefaultFile in startDir and its parents.
func FindConfig(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		candidate := filepath.Join(dir, config.DefaultFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found", config.DefaultFile)
}
