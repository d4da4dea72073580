package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// maxCodeDraws bounds the collision retry loop in Create.
const maxCodeDraws = 64

var ErrCodesExhausted = errors.New("no free session code")

// entry guards one session. Lock order is Registry.mu then entry.mu.
type entry struct {
	mu sync.Mutex
	s  domain.Session
}

// Registry is the single owner of all live and recently ended sessions.
// Sessions are reachable by id and, through the code index, by code; both
// maps change together under mu. Operations on one session serialize on that
// session's own lock so unrelated sessions never contend.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*entry
	codes    map[domain.Code]domain.SessionID

	now      func() time.Time
	nextCode func() domain.Code
	newID    func() domain.SessionID
	events   core.EventSink
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithCodeSource(next func() domain.Code) Option {
	return func(r *Registry) { r.nextCode = next }
}

func WithIDSource(next func() domain.SessionID) Option {
	return func(r *Registry) { r.newID = next }
}

func WithEvents(sink core.EventSink) Option {
	return func(r *Registry) { r.events = sink }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[domain.SessionID]*entry),
		codes:    make(map[domain.Code]domain.SessionID),
		now:      time.Now,
		nextCode: RandomCode,
		newID:    func() domain.SessionID { return domain.SessionID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type CreateParams struct {
	Kind     domain.Kind
	OwnerID  domain.UserID
	Capacity *int
	Features domain.FeatureOverrides
}

func (p CreateParams) validate() error {
	if !p.Kind.Valid() {
		return domain.InvalidInputError("kind", "must be one of group, couples, family")
	}
	if err := domain.ValidateUserID(p.OwnerID, "owner_id"); err != nil {
		return err
	}
	if p.Capacity != nil && *p.Capacity <= 0 {
		return domain.InvalidInputError("capacity", "must be a positive integer")
	}
	return nil
}

// Create registers a waiting session with a fresh code.
func (r *Registry) Create(p CreateParams) (domain.Session, error) {
	if err := p.validate(); err != nil {
		return domain.Session{}, err
	}
	capacity := p.Kind.DefaultCapacity()
	if p.Capacity != nil {
		capacity = *p.Capacity
	}
	e := &entry{s: domain.Session{
		ID:           r.newID(),
		Kind:         p.Kind,
		OwnerID:      p.OwnerID,
		Capacity:     capacity,
		Participants: []domain.Participant{},
		Status:       domain.StatusWaiting,
		Features:     p.Features.Apply(domain.DefaultFeatures()),
		CreatedAt:    r.now(),
	}}

	r.mu.Lock()
	code, ok := r.claimCodeLocked(e.s.ID)
	if !ok {
		r.mu.Unlock()
		return domain.Session{}, ErrCodesExhausted
	}
	e.s.Code = code
	e.s.RoomRef = domain.NewRoomRef(code)
	r.sessions[e.s.ID] = e
	snap := e.s.Clone()
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("session_id", string(snap.ID)).Str("code", string(code)).
		Str("kind", string(snap.Kind)).Int("capacity", snap.Capacity).Msg("session created")
	return snap, nil
}

// claimCodeLocked draws codes until one is free and inserts it. Caller holds r.mu.
func (r *Registry) claimCodeLocked(id domain.SessionID) (domain.Code, bool) {
	for range maxCodeDraws {
		code := r.nextCode()
		if _, taken := r.codes[code]; taken {
			continue
		}
		r.codes[code] = id
		return code, true
	}
	return "", false
}

func (r *Registry) lookup(code domain.Code) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}
	return r.sessions[id], nil
}

// Join admits userID to the session behind code. The first participant ever
// admitted becomes host and moves a waiting session to active, whether or not
// it is the owner.
func (r *Registry) Join(code domain.Code, userID domain.UserID, displayName string, device json.RawMessage) (domain.Participant, domain.Session, error) {
	if err := domain.ValidateUserID(userID, "user_id"); err != nil {
		return domain.Participant{}, domain.Session{}, err
	}
	name, err := domain.NormalizeDisplayName(displayName, userID)
	if err != nil {
		return domain.Participant{}, domain.Session{}, err
	}
	e, err := r.lookup(code)
	if err != nil {
		return domain.Participant{}, domain.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.s
	switch {
	case s.Status == domain.StatusEnded:
		return domain.Participant{}, domain.Session{}, domain.ErrEnded
	case s.Full():
		return domain.Participant{}, domain.Session{}, domain.ErrFull
	case s.Participant(userID) >= 0:
		return domain.Participant{}, domain.Session{}, domain.ErrAlreadyJoined
	}

	now := r.now()
	p := domain.NewParticipant(userID, name, device, len(s.Participants) == 0, now)
	s.Participants = append(s.Participants, p)
	if s.Status == domain.StatusWaiting {
		s.Status = domain.StatusActive
		s.StartedAt = &now
	}
	snap := s.Clone()
	r.publish(code, core.Event{Type: core.EventParticipantJoined, UserID: userID, Session: snap})

	log.Info().Str("module", "app.registry").Str("code", string(code)).Str("user_id", string(userID)).
		Bool("host", p.IsHost).Int("participants", len(snap.Participants)).Msg("participant joined")
	return p.Clone(), snap, nil
}

// Status returns a snapshot of the session, including ended ones.
func (r *Registry) Status(code domain.Code) (domain.Session, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

// UpdateParticipant applies the mutable fields of upd to userID's slot.
func (r *Registry) UpdateParticipant(code domain.Code, userID domain.UserID, upd domain.ParticipantUpdate) (domain.Session, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.s
	i := s.Participant(userID)
	if i < 0 {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, userID)
	}
	if err := upd.Validate(); err != nil {
		return domain.Session{}, err
	}
	if s.Status == domain.StatusEnded {
		return domain.Session{}, domain.ErrEnded
	}
	upd.Apply(&s.Participants[i])
	snap := s.Clone()
	r.publish(code, core.Event{Type: core.EventParticipantUpdated, UserID: userID, Session: snap})

	log.Debug().Str("module", "app.registry").Str("code", string(code)).Str("user_id", string(userID)).Msg("participant updated")
	return snap, nil
}

// End terminates the session. Only the owner or the host may do so.
func (r *Registry) End(code domain.Code, userID domain.UserID) (domain.Session, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.s
	if !s.CanEnd(userID) {
		log.Warn().Str("module", "app.registry").Str("code", string(code)).Str("user_id", string(userID)).Msg("end rejected")
		return domain.Session{}, domain.ErrNotAuthorized
	}
	if s.Status == domain.StatusEnded {
		return domain.Session{}, domain.ErrAlreadyEnded
	}
	now := r.now()
	s.Status = domain.StatusEnded
	s.EndedAt = &now
	snap := s.Clone()
	r.publish(code, core.Event{Type: core.EventSessionEnded, UserID: userID, Session: snap})

	log.Info().Str("module", "app.registry").Str("code", string(code)).Str("user_id", string(userID)).Msg("session ended")
	return snap, nil
}

// Len returns the number of indexed sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) publish(code domain.Code, ev core.Event) {
	if r.events != nil {
		r.events.Publish(code, ev)
	}
}
