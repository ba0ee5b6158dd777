package system

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/account"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

const storeTimeout = 5 * time.Second

// HeroSaver writes one hero's save slot.
type HeroSaver interface {
	SaveHero(u *unit.Unit, h *world.Hero) error
}

// PersistenceSystem autosaves dirty heroes and the server metadata every
// interval. Phase 5 (Persist).
type PersistenceSystem struct {
	world    *world.State
	saves    *persist.CharacterStore
	accounts account.Store
	meta     *persist.Metadata
	root     string
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewPersistenceSystem(ws *world.State, saves *persist.CharacterStore, accounts account.Store, meta *persist.Metadata, root string, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		saves:    saves,
		accounts: accounts,
		meta:     meta,
		root:     root,
		interval: interval,
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.saveHeroes(true)
	s.saveMetadata()
}

// SaveAll saves every hero regardless of the dirty flag, then the metadata.
// Called on shutdown.
func (s *PersistenceSystem) SaveAll() {
	s.saveHeroes(false)
	s.saveMetadata()
}

func (s *PersistenceSystem) saveHeroes(dirtyOnly bool) {
	count := 0
	s.world.EachHero(func(u *unit.Unit, h *world.Hero) {
		if dirtyOnly && !u.Dirty {
			return
		}
		if err := s.SaveHero(u, h); err != nil {
			s.log.Error("autosave failed", zap.String("name", u.Name), zap.Error(err))
			return
		}
		count++
	})
	if count > 0 {
		s.log.Info("heroes saved", zap.Int("count", count))
	}
}

// SaveHero writes the save slot and refreshes the level shown in the
// account's character list. A failed level update is only logged.
func (s *PersistenceSystem) SaveHero(u *unit.Unit, h *world.Hero) error {
	c := &persist.Character{Unit: u, Storage: h.Storage, Passive: h.Passive}
	if err := s.saves.Save(h.Account, h.Character, c); err != nil {
		return err
	}
	u.Dirty = false

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ref := account.CharacterRef{ID: h.Character, Name: u.Name, Class: u.Class, Level: u.Level}
	if err := s.accounts.UpdateLevel(ctx, ref); err != nil {
		s.log.Warn("update character level failed", zap.String("name", u.Name), zap.Error(err))
	}
	return nil
}

func (s *PersistenceSystem) saveMetadata() {
	s.meta.SetNextUid(s.world.UidCounter())
	if !s.meta.Dirty() {
		return
	}
	if err := s.meta.Save(s.root); err != nil {
		s.log.Error("save metadata failed", zap.Error(err))
	}
}
