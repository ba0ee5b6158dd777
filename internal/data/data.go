package data

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrMissingKey reports a table row that references something undefined.
var ErrMissingKey = errors.New("missing metadata key")

//go:embed defaults/*.yaml
var defaults embed.FS

// Tables is the full set of static metadata the simulation reads.
type Tables struct {
	Stats    *StatTable
	Items    *ItemTable
	Passives *PassiveTable
	Skills   *SkillTable
	Classes  *ClassTable
	Villains *VillainTable
	Zones    *ZoneTable
}

// Load reads every table. Files present in dir replace the embedded default
// of the same name; an empty dir loads the embedded defaults only.
func Load(dir string) (*Tables, error) {
	src := source{dir: dir}
	var (
		t   Tables
		err error
	)
	if t.Stats, err = loadStatTable(src); err != nil {
		return nil, err
	}
	if t.Items, err = loadItemTable(src, t.Stats); err != nil {
		return nil, err
	}
	if t.Passives, err = loadPassiveTable(src, t.Stats); err != nil {
		return nil, err
	}
	if t.Skills, err = loadSkillTable(src); err != nil {
		return nil, err
	}
	if t.Classes, err = loadClassTable(src, t.Stats, t.Skills); err != nil {
		return nil, err
	}
	if t.Villains, err = loadVillainTable(src, t.Stats, t.Skills, t.Items); err != nil {
		return nil, err
	}
	if t.Zones, err = loadZoneTable(src, t.Villains); err != nil {
		return nil, err
	}
	return &t, nil
}

type source struct {
	dir string
}

func (s source) read(name string) ([]byte, error) {
	if s.dir != "" {
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return defaults.ReadFile("defaults/" + name)
}

// decode reads name from s into v.
func (s source) decode(name string, v any) error {
	raw, err := s.read(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func missing(table, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", table, ErrMissingKey, fmt.Sprintf(format, args...))
}
