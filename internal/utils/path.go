package utils

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// DataDirCandidates lists where a dictionary directory named requested may
// live, in order of preference: as given, next to the executable, the
// executable's parent, then under configDir.
func DataDirCandidates(requested, configDir string) []string {
	var candidates []string
	if filepath.IsAbs(requested) {
		return append(candidates, requested)
	}

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, requested))
	}
	if execDir, err := GetExecutableDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(execDir, requested),
			filepath.Join(filepath.Dir(execDir), requested),
		)
	}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, requested))
	}
	return candidates
}

// ResolveDataDir returns the first candidate holding dictionary files. When
// none qualifies the requested path is returned so the loader can report it.
func ResolveDataDir(requested, configDir string) string {
	for _, path := range DataDirCandidates(requested, configDir) {
		if HasDictionaryFiles(path) {
			log.Debugf("Found valid data directory: %s", path)
			return path
		}
		log.Debugf("Data directory candidate not valid: %s", path)
	}
	return requested
}

// HasDictionaryFiles reports whether dir contains binary chunks or text word lists.
func HasDictionaryFiles(dir string) bool {
	if !DirExists(dir) {
		return false
	}
	for _, pattern := range []string{"dict_*.bin", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}
