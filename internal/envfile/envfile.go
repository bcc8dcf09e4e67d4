// Package envfile loads environment variables from dotenv-style files.
// Values already present in the environment always win.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a dotenv file and sets any variable not already present in
// the environment. A missing file is not an error; only read failures are.
func Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // best-effort close on read-only file

	if err := apply(file); err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	return nil
}

// apply scans KEY=VALUE lines and sets unset variables.
func apply(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// parseLine extracts KEY=VALUE from one line, tolerating blank lines,
// comments, an "export " prefix, and single or double quoted values.
func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
	if key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}
