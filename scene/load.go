package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a scene file, choosing the reader by extension: .yaml and
// .yml are YAML, anything else is the plain format. Relative plugin
// directories are resolved against the file's directory.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = ReadYAML(f)
	default:
		doc, err = ReadPlain(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, d := range doc.PluginDirs {
		if !filepath.IsAbs(d) {
			doc.PluginDirs[i] = filepath.Join(dir, d)
		}
	}
	return doc, nil
}
