package appregistry

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"platform-service/pkg/logger"
)

// ManifestFileName is the descriptor file looked up inside application
// directories.
const ManifestFileName = "manifest.json"

// Discover enumerates the search paths and parses every manifest found.
// Each application lives in its own directory containing manifest.json;
// loose *.json files directly under a search path are accepted too. An
// invalid manifest is logged and skipped. Later search paths never shadow
// earlier codes.
func Discover(searchPaths []string) []Manifest {
	log := logger.GetLogger()
	seen := make(map[string]bool)
	var discovered []Manifest

	for _, searchPath := range searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			log.Warn("Skipping unreadable plugin path",
				zap.String("path", searchPath), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			var manifestPath string
			if entry.IsDir() {
				manifestPath = filepath.Join(searchPath, entry.Name(), ManifestFileName)
			} else if strings.HasSuffix(entry.Name(), ".json") {
				manifestPath = filepath.Join(searchPath, entry.Name())
			} else {
				continue
			}

			raw, err := os.ReadFile(manifestPath)
			if err != nil {
				if entry.IsDir() && os.IsNotExist(err) {
					continue // directory without a manifest is not an application
				}
				log.Warn("Skipping unreadable manifest",
					zap.String("path", manifestPath), zap.Error(err))
				continue
			}

			manifest, err := ParseManifest(raw)
			if err != nil {
				log.Warn("Skipping invalid manifest",
					zap.String("path", manifestPath), zap.Error(err))
				continue
			}
			if seen[manifest.Code] {
				log.Warn("Skipping duplicate application code",
					zap.String("code", manifest.Code), zap.String("path", manifestPath))
				continue
			}

			seen[manifest.Code] = true
			discovered = append(discovered, *manifest)
			log.Debug("Discovered application",
				zap.String("code", manifest.Code), zap.String("version", manifest.Version))
		}
	}
	return discovered
}
