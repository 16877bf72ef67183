package phases

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
)

// Phase is a fixed, pre-scheduled calendar window with its own reward
// pool. Phases are sequential and non-overlapping; once defined they are
// never mutated.
type Phase struct {
	Number     uint64
	StartTime  time.Time
	EndTime    time.Time
	RewardPool decimal.Decimal
}

func (p *Phase) Contains(t time.Time) bool {
	return !t.Before(p.StartTime) && t.Before(p.EndTime)
}

func (p *Phase) EndedBy(t time.Time) bool {
	return !t.Before(p.EndTime)
}

type Registry struct {
	phases []*Phase
}

// NewRegistry derives the phase schedule from config: phase N covers
// [launch + (N-1)*duration, launch + N*duration), all with the same pool.
func NewRegistry(cfg *config.PhasesConfig) (*Registry, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("phase count must be positive, got %d", cfg.Count)
	}
	if cfg.DurationDays <= 0 {
		return nil, fmt.Errorf("phase duration must be positive, got %d days", cfg.DurationDays)
	}

	duration := time.Duration(cfg.DurationDays) * 24 * time.Hour
	phases := make([]*Phase, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		start := cfg.LaunchTime.Add(time.Duration(i) * duration)
		phases = append(phases, &Phase{
			Number:     uint64(i + 1),
			StartTime:  start,
			EndTime:    start.Add(duration),
			RewardPool: cfg.RewardPool,
		})
	}
	return &Registry{phases: phases}, nil
}

func (r *Registry) All() []*Phase {
	return r.phases
}

func (r *Registry) Get(number uint64) (*Phase, error) {
	if number < 1 || number > uint64(len(r.phases)) {
		return nil, fmt.Errorf("unknown phase %d", number)
	}
	return r.phases[number-1], nil
}

// PhaseAt returns the phase whose window contains t, if any.
func (r *Registry) PhaseAt(t time.Time) (*Phase, bool) {
	for _, p := range r.phases {
		if p.Contains(t) {
			return p, true
		}
	}
	return nil, false
}

// EndedBy is used by the cutoff scheduler: phases whose window has closed
// by t, oldest first.
func (r *Registry) EndedBy(t time.Time) []*Phase {
	ended := make([]*Phase, 0)
	for _, p := range r.phases {
		if p.EndedBy(t) {
			ended = append(ended, p)
		}
	}
	return ended
}
