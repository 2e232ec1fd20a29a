package filepathparser

import (
	"os"
	"path/filepath"
	"strings"
)

// ParsePath expands environment variables and a leading ~/ and returns the absolute path.
func ParsePath(path string) (string, error) {
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~/") {
		dirname, _ := os.UserHomeDir()
		path = filepath.Join(dirname, path[2:])
	}

	return filepath.Abs(path)
}
