package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclparse"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = errors.New("invalid level")
)

// DefaultLevelID is the level offered when a session names none
const DefaultLevelID = "warmup"

const (
	formatJSON = "json"
	formatHCL  = "hcl"
)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	// Ensure level directory exists
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
	}
	m.loadDefaultLevel()
	return m, nil
}

// LoadLevel loads a level by ID. A JSON file <id>.json wins over a level
// block of the same ID in an HCL pack.
func (m *Manager) LoadLevel(name string) (*engine.Level, error) {
	name = strings.TrimSuffix(name, ".json")
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, name)
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[name]; exists {
		return level, nil
	}

	level, err := m.readJSON(name)
	if errors.Is(err, ErrLevelNotFound) {
		level, err = m.findInPacks(name)
	}
	if err != nil {
		return nil, err
	}

	m.levels[name] = level
	return level, nil
}

// ListLevels returns information about all available levels, sorted by ID.
// Invalid levels are skipped.
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	seen := make(map[string]bool)
	var levels []*service.LevelInfo

	// JSON first so that it shadows packs
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		level, err := m.LoadLevel(id)
		if err != nil {
			log.WithField("file", entry.Name()).WithError(err).Debug("skipping level")
			continue
		}
		seen[id] = true
		levels = append(levels, levelInfo(entry.Name(), id, formatJSON, level))
	}

	parser := hclparse.NewParser()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".hcl" {
			continue
		}
		pack, err := parseLevelPack(filepath.Join(m.levelDir, entry.Name()), parser)
		if err != nil {
			log.WithField("file", entry.Name()).WithError(err).Warn("skipping level pack")
			continue
		}
		for _, pl := range pack {
			if seen[pl.ID] {
				continue
			}
			if err := engine.ValidateLevel(pl.Level); err != nil {
				log.WithFields(log.Fields{"file": entry.Name(), "level": pl.ID}).WithError(err).Debug("skipping level")
				continue
			}
			seen[pl.ID] = true
			m.cache(pl.ID, pl.Level)
			levels = append(levels, levelInfo(entry.Name(), pl.ID, formatHCL, pl.Level))
		}
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by ID
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops cached levels and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	m.loadDefaultLevel()
}

// SaveLevel validates a level and writes it to <id>.json
func (m *Manager) SaveLevel(name string, level *engine.Level) error {
	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, name)
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	levelPath := filepath.Join(m.levelDir, name+".json")
	if err := os.WriteFile(levelPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.cache(name, level)
	return nil
}

// loadDefaultLevel picks DefaultLevelID, then the first listed level, then the built-in level
func (m *Manager) loadDefaultLevel() {
	level, err := m.LoadLevel(DefaultLevelID)
	if err != nil {
		level = engine.DefaultLevel()
		if available, listErr := m.ListLevels(); listErr == nil && len(available) > 0 {
			if first, err := m.LoadLevel(available[0].LevelID); err == nil {
				level = first
			}
		}
	}

	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
}

func (m *Manager) cache(id string, level *engine.Level) {
	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()
}

// readJSON loads <id>.json. Callers hold m.mu.
func (m *Manager) readJSON(id string) (*engine.Level, error) {
	data, err := os.ReadFile(filepath.Join(m.levelDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level engine.Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("%w: failed to parse level %s: %v", ErrInvalidLevel, id, err)
	}
	if err := engine.ValidateLevel(&level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	return &level, nil
}

// findInPacks scans the HCL packs for a level block labelled id. Callers hold m.mu.
func (m *Manager) findInPacks(id string) (*engine.Level, error) {
	paths, err := filepath.Glob(filepath.Join(m.levelDir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	parser := hclparse.NewParser()
	for _, path := range paths {
		pack, err := parseLevelPack(path, parser)
		if err != nil {
			log.WithField("file", path).WithError(err).Warn("skipping level pack")
			continue
		}
		for _, pl := range pack {
			if pl.ID != id {
				continue
			}
			if err := engine.ValidateLevel(pl.Level); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
			}
			return pl.Level, nil
		}
	}
	return nil, ErrLevelNotFound
}

func levelInfo(filename, id, format string, level *engine.Level) *service.LevelInfo {
	info := &service.LevelInfo{
		Filename:    filename,
		LevelID:     id,
		Name:        level.Name,
		Description: level.Description,
		Format:      format,
	}
	if g, err := level.BuildGrid(); err == nil {
		stats := engine.StatsOf(g)
		info.Width, info.Height = stats.Width, stats.Height
		info.Boxes, info.Targets = stats.Boxes, stats.Targets
	}
	return info
}
