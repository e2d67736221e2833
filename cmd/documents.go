package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// loadDocuments reads every *.yaml/*.yml schema document directly under
// dir, keyed by filename stem — spec.md §4.4's "name → document pairs",
// discovered from a directory the way the teacher's config.Load reads a
// single spec file, generalized to one document per collection.
func loadDocuments(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading namespace directory %q: %w", dir, err)
	}

	docs := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", name, err)
		}
		docs[stem] = data
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no .yaml/.yml schema documents found in %q", dir)
	}
	return docs, nil
}
