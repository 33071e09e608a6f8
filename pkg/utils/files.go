package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath replaces the extension of inPath with suffix:
// "prog.rat" with "_output.txt" gives "prog_output.txt".
func OutputPath(inPath, suffix string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + suffix
	}
	return strings.TrimSuffix(inPath, ext) + suffix
}
