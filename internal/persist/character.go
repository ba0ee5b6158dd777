package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/emberfall/server/internal/unit"
	"github.com/google/uuid"
)

const (
	unitFile    = "unit.json"
	storageFile = "storage.json"
	passiveFile = "passive.json"
)

// Character is everything saved for one save slot.
type Character struct {
	Unit    *unit.Unit
	Storage *unit.UnitStorage
	Passive *unit.PassiveSkillGraph
}

// CharacterStore reads and writes save slots under
// <root>/accounts/<account>/<character>/, one JSON file per artifact.
type CharacterStore struct {
	root string
}

func NewCharacterStore(root string) *CharacterStore {
	return &CharacterStore{root: root}
}

func (s *CharacterStore) dir(account uint64, id uuid.UUID) string {
	return filepath.Join(s.root, "accounts", strconv.FormatUint(account, 10), id.String())
}

// Save writes all three artifacts. The first failure aborts the save; files
// written before it are left in place.
func (s *CharacterStore) Save(account uint64, id uuid.UUID, c *Character) error {
	dir := s.dir(account, id)
	parts := []struct {
		name string
		v    any
	}{
		{unitFile, c.Unit},
		{storageFile, c.Storage},
		{passiveFile, c.Passive},
	}
	for _, p := range parts {
		data, err := json.MarshalIndent(p.v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.name, err)
		}
		if err := writeFileAtomic(filepath.Join(dir, p.name), data); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return nil
}

// Load reads a save slot. Missing storage or passive files load as empty.
func (s *CharacterStore) Load(account uint64, id uuid.UUID) (*Character, error) {
	dir := s.dir(account, id)
	c := &Character{
		Unit:    &unit.Unit{},
		Storage: &unit.UnitStorage{},
		Passive: &unit.PassiveSkillGraph{},
	}
	if err := readJSON(filepath.Join(dir, unitFile), c.Unit, false); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, storageFile), c.Storage, true); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, passiveFile), c.Passive, true); err != nil {
		return nil, err
	}
	return c, nil
}

func readJSON(path string, v any, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
