package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/persist"
	"github.com/duskspire/server/internal/world"
)

// PersistSystem batch-saves live progress (level, xp, skill points, gold)
// for players marked dirty since the last flush. Writes are dispatched off
// the tick goroutine; the persist service serializes them per player.
type PersistSystem struct {
	state    *world.State
	svc      *persist.Service
	interval time.Duration
	acc      time.Duration
	log      *zap.Logger
}

func NewPersistSystem(st *world.State, svc *persist.Service, interval time.Duration, log *zap.Logger) *PersistSystem {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PersistSystem{state: st, svc: svc, interval: interval, log: log}
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc = 0
	if s.svc == nil {
		return
	}
	for _, p := range s.state.Players {
		if !p.Dirty {
			continue
		}
		p.Dirty = false
		s.dispatch(p)
	}
}

func (s *PersistSystem) dispatch(p *world.Player) {
	id := p.PersistID
	prog := persist.Progress{
		Level:       p.Level,
		XP:          p.XP,
		SkillPoints: p.SkillPoints,
		Gold:        p.Gold,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.svc.SaveProgress(ctx, id, prog); err != nil {
			s.log.Error("progress save failed", zap.Int64("player", id), zap.Error(err))
		}
	}()
}
