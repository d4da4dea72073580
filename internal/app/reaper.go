package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// ExpireWaiting ends every session that is still waiting after ttl. It returns
// how many sessions were expired.
func (r *Registry) ExpireWaiting(ttl time.Duration) int {
	now := r.now()
	cutoff := now.Add(-ttl)

	r.mu.RLock()
	entries := make(map[domain.Code]*entry, len(r.codes))
	for code, id := range r.codes {
		entries[code] = r.sessions[id]
	}
	r.mu.RUnlock()

	expired := 0
	for code, e := range entries {
		e.mu.Lock()
		if e.s.Status == domain.StatusWaiting && e.s.CreatedAt.Before(cutoff) {
			e.s.Status = domain.StatusEnded
			e.s.EndedAt = &now
			r.publish(code, core.Event{Type: core.EventSessionExpired, Session: e.s.Clone()})
			expired++
		}
		e.mu.Unlock()
	}
	return expired
}

// EndedBefore returns snapshots of ended sessions whose EndedAt precedes cutoff.
func (r *Registry) EndedBefore(cutoff time.Time) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Session
	for _, e := range r.sessions {
		e.mu.Lock()
		if e.s.Status == domain.StatusEnded && e.s.EndedAt != nil && e.s.EndedAt.Before(cutoff) {
			out = append(out, e.s.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// Remove drops an ended session from both maps and frees its code.
// Live sessions are never removed.
func (r *Registry) Remove(id domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	e.mu.Lock()
	ended := e.s.Status == domain.StatusEnded
	code := e.s.Code
	e.mu.Unlock()
	if !ended {
		return false
	}
	delete(r.sessions, id)
	delete(r.codes, code)
	log.Info().Str("module", "app.registry").Str("session_id", string(id)).Str("code", string(code)).Msg("session removed")
	return true
}

// Reaper expires abandoned waiting sessions and moves long-ended sessions out
// of the live index into the archive.
type Reaper struct {
	Registry       *Registry
	Archive        core.Archiver
	WaitingTTL     time.Duration
	EndedRetention time.Duration
	// OnSweep runs after every sweep, e.g. to evict idle rate limiters.
	OnSweep func(now time.Time)
}

type SweepResult struct {
	Expired  int
	Removed  int
	Archived int
}

func (rp *Reaper) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	if rp.WaitingTTL > 0 {
		res.Expired = rp.Registry.ExpireWaiting(rp.WaitingTTL)
	}
	now := rp.Registry.now()
	for _, s := range rp.Registry.EndedBefore(now.Add(-rp.EndedRetention)) {
		if rp.Archive != nil {
			if err := rp.Archive.Save(ctx, s); err != nil {
				log.Error().Err(err).Str("module", "app.reaper").Str("session_id", string(s.ID)).Msg("archive failed, keeping session")
				continue
			}
			res.Archived++
		}
		if rp.Registry.Remove(s.ID) {
			res.Removed++
		}
	}
	if rp.OnSweep != nil {
		rp.OnSweep(now)
	}
	if res.Expired+res.Removed > 0 {
		log.Info().Str("module", "app.reaper").Int("expired", res.Expired).Int("removed", res.Removed).
			Int("archived", res.Archived).Msg("sweep done")
	}
	return res
}

// Run sweeps every interval until ctx is done.
func (rp *Reaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case <-ticker.C:
			rp.Sweep(ctx)
		}
	}
}
