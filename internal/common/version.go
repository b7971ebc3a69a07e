package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the version, preferring a .version file beside the executable
func GetVersion() string {
	if v := versionFromFile(); v != "" {
		return v
	}
	return Version
}

// GetFullVersion returns version with build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", GetVersion(), Build, GitCommit)
}

func versionFromFile() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(exePath), ".version"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
