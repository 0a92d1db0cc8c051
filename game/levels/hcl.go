package levels

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/wricardo/sokoban/game/engine"
)

// hclLevelFile is the top-level structure of a level pack
type hclLevelFile struct {
	Levels []*hclLevel `hcl:"level,block"`
}

type hclLevel struct {
	ID          string   `hcl:"id,label"`
	Name        string   `hcl:"name"`
	Description string   `hcl:"description,optional"`
	Layout      []string `hcl:"layout"`
}

// Entry is one level read from a level file together with its ID
type Entry struct {
	ID    string
	Level *engine.Level
}

// parseLevelPack decodes every level block of an HCL file. Levels are not
// validated here.
func parseLevelPack(path string, parser *hclparse.Parser) ([]Entry, error) {
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclLevelFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	seen := make(map[string]bool, len(parsed.Levels))
	levels := make([]Entry, 0, len(parsed.Levels))
	for _, l := range parsed.Levels {
		if seen[l.ID] {
			return nil, fmt.Errorf("%s: duplicate level %q", path, l.ID)
		}
		seen[l.ID] = true
		levels = append(levels, Entry{
			ID: l.ID,
			Level: &engine.Level{
				Name:        l.Name,
				Description: l.Description,
				Layout:      l.Layout,
			},
		})
	}
	return levels, nil
}
