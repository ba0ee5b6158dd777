package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadMetadata_CreatesWhenAbsent(t *testing.T) {
	root := t.TempDir()

	m, err := LoadMetadata(root)
	require.NoError(t, err)
	assert.Equal(t, &Metadata{}, m)
	assert.FileExists(t, filepath.Join(root, metadataFile))
}

func TestMetadata_RoundTrip(t *testing.T) {
	root := t.TempDir()
	m, err := LoadMetadata(root)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), m.AllocAccountID(), "zero is skipped")
	assert.Equal(t, uint64(2), m.AllocAccountID())
	assert.Equal(t, uint64(1), m.AllocMessageID())
	m.SetNextUid(77)
	m.RngSeed = 0xdeadbeef
	assert.True(t, m.Dirty())

	require.NoError(t, m.Save(root))
	assert.False(t, m.Dirty())

	got, err := LoadMetadata(root)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.NextAccountID)
	assert.Equal(t, uint64(2), got.NextMessageID)
	assert.Equal(t, uint64(77), got.NextUid)
	assert.Equal(t, uint64(0xdeadbeef), got.RngSeed)

	raw, err := os.ReadFile(filepath.Join(root, metadataFile))
	require.NoError(t, err)
	assert.Len(t, raw, 8+4*8)
	assert.Equal(t, []byte("EBMR"), raw[:4])
}

func TestLoadMetadata_Corrupt(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, metadataFile)

	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	_, err := LoadMetadata(root)
	assert.ErrorIs(t, err, ErrBadMetadata)

	require.NoError(t, os.WriteFile(path, make([]byte, 40), 0o644))
	_, err = LoadMetadata(root)
	assert.ErrorIs(t, err, ErrBadMetadata)
}

func TestSetNextUid_UnchangedIsClean(t *testing.T) {
	m := &Metadata{NextUid: 5}
	m.SetNextUid(5)
	assert.False(t, m.Dirty())
}

func testHero() *unit.Unit {
	base := make(map[stat.StatID]stat.Value, len(unit.RequiredStats))
	for _, id := range unit.RequiredStats {
		base[id] = stat.F32(10)
	}
	u := unit.New(4, "ash", unit.Hero, "warrior", 3, base)
	u.XP = 250
	u.SetSkill(unit.SlotPrimary, 2)
	return u
}

func TestCharacterStore_RoundTrip(t *testing.T) {
	store := NewCharacterStore(t.TempDir())
	id := uuid.New()
	c := &Character{
		Unit:    testHero(),
		Storage: &unit.UnitStorage{Gold: 90, Items: []unit.Item{{ID: 1, Name: "cap", Slot: unit.SlotHelmet}}},
		Passive: &unit.PassiveSkillGraph{Points: 1, Allocated: []unit.PassiveNodeID{3}},
	}

	require.NoError(t, store.Save(7, id, c))
	for _, f := range []string{unitFile, storageFile, passiveFile} {
		assert.FileExists(t, filepath.Join(store.dir(7, id), f))
	}

	got, err := store.Load(7, id)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCharacterStore_OptionalFiles(t *testing.T) {
	store := NewCharacterStore(t.TempDir())
	id := uuid.New()
	require.NoError(t, store.Save(1, id, &Character{
		Unit:    testHero(),
		Storage: &unit.UnitStorage{},
		Passive: &unit.PassiveSkillGraph{},
	}))
	require.NoError(t, os.Remove(filepath.Join(store.dir(1, id), storageFile)))
	require.NoError(t, os.Remove(filepath.Join(store.dir(1, id), passiveFile)))

	got, err := store.Load(1, id)
	require.NoError(t, err)
	assert.Equal(t, &unit.UnitStorage{}, got.Storage)
	assert.Equal(t, &unit.PassiveSkillGraph{}, got.Passive)
}

func TestCharacterStore_MissingUnit(t *testing.T) {
	store := NewCharacterStore(t.TempDir())
	_, err := store.Load(1, uuid.New())
	assert.ErrorContains(t, err, "read unit.json")
}

func TestMigrations_Embedded(t *testing.T) {
	versions, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, versions)
}

func TestGooseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := gooseLogger{log: zap.New(core).Sugar()}

	l.Printf("OK   %s (%s)\n", "00001_accounts.sql", "2ms")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.InfoLevel, entry.Level)
	assert.Equal(t, "OK   00001_accounts.sql (2ms)", entry.Message)
}

func TestMetadata_Seed(t *testing.T) {
	m := &Metadata{}
	draws := 0
	gen := func() uint64 {
		draws++
		return uint64(draws - 1)
	}

	assert.Equal(t, uint64(1), m.Seed(gen), "zero is redrawn")
	assert.True(t, m.Dirty())
	assert.Equal(t, uint64(1), m.Seed(gen))
	assert.Equal(t, 2, draws)
}
