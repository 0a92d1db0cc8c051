package levels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
)

// ReadFile reads every level in a .json or .hcl file. A JSON file holds one
// level whose ID is the file name without extension. Levels are not validated.
func ReadFile(path string) ([]Entry, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return parseLevelPack(path, hclparse.NewParser())
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read level file: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry.Level); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidLevel, filepath.Base(path), err)
		}
		if entry.Level == nil {
			return nil, fmt.Errorf("%w: %s holds no level", ErrInvalidLevel, filepath.Base(path))
		}
		entry.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		return []Entry{entry}, nil
	}
	return nil, fmt.Errorf("%w: unsupported level file %s", ErrInvalidLevel, filepath.Base(path))
}
