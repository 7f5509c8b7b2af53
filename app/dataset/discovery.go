package dataset

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// discoveryPatterns match the dataset files Discover picks up, including
// compressed variants of the text formats.
var discoveryPatterns = []string{
	"**/*.{csv,json,xlsx}",
	"**/*.{csv,json}.{gz,bz2,xz}",
}

// Discover walks dataDir for loadable dataset files and returns their
// metadata without reading row data. Results are sorted by ID.
func Discover(dataDir string) ([]Info, error) {
	seen := make(map[string]bool)
	var infos []Info

	for _, pattern := range discoveryPatterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(dataDir, pattern))
		if err != nil {
			return nil, err
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			stat, err := os.Stat(path)
			if err != nil || stat.IsDir() {
				continue
			}

			id := datasetID(path)
			infos = append(infos, Info{
				ID:        id,
				Name:      displayName(id),
				Path:      path,
				Format:    dataFormat(path),
				SizeBytes: stat.Size(),
			})
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
