// Package config locates the global configuration directory for mdtmpl.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the mdtmpl configuration directory.
//
// Resolution:
//   - $MDTMPL_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/mdtmpl if set (respects XDG on any platform)
//   - %AppData%/mdtmpl on Windows
//   - ~/.config/mdtmpl on macOS and Linux
func Dir() string {
	if dir := os.Getenv("MDTMPL_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mdtmpl")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mdtmpl")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mdtmpl")
}
