// Package domain contains session entities, their invariants and nothing else:
// no locking, no transport, no persistence.
package domain

import (
	"slices"
	"time"
)

type (
	SessionID string
	Code      string
	RoomRef   string
)

type Kind string

const (
	KindGroup   Kind = "group"
	KindCouples Kind = "couples"
	KindFamily  Kind = "family"
)

// DefaultCapacity returns the participant limit used when a session is created
// without an explicit override.
func (k Kind) DefaultCapacity() int {
	switch k {
	case KindCouples:
		return 3
	case KindFamily:
		return 6
	default:
		return 4
	}
}

func (k Kind) Valid() bool {
	switch k {
	case KindGroup, KindCouples, KindFamily:
		return true
	}
	return false
}

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Features are pass-through flags for the chat, recording and expression
// analysis collaborators. The registry never interprets them.
type Features struct {
	ChatEnabled               bool `json:"chat_enabled"`
	RecordingEnabled          bool `json:"recording_enabled"`
	ExpressionAnalysisEnabled bool `json:"expression_analysis_enabled"`
}

func DefaultFeatures() Features {
	return Features{ChatEnabled: true, ExpressionAnalysisEnabled: true}
}

type Session struct {
	ID           SessionID     `json:"id"`
	Code         Code          `json:"code"`
	Kind         Kind          `json:"kind"`
	OwnerID      UserID        `json:"owner_id"`
	Capacity     int           `json:"capacity"`
	Participants []Participant `json:"participants"`
	Status       Status        `json:"status"`
	RoomRef      RoomRef       `json:"room_ref"`
	Features     Features      `json:"features"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
}

// NewRoomRef derives the media room token from a session code.
func NewRoomRef(code Code) RoomRef {
	return RoomRef("therapy_" + string(code))
}

// Participant returns the index of userID in the participant list, or -1.
func (s *Session) Participant(userID UserID) int {
	return slices.IndexFunc(s.Participants, func(p Participant) bool {
		return p.UserID == userID
	})
}

// Host returns the host participant, if anyone has joined yet.
func (s *Session) Host() (Participant, bool) {
	for _, p := range s.Participants {
		if p.IsHost {
			return p, true
		}
	}
	return Participant{}, false
}

func (s *Session) Full() bool { return len(s.Participants) >= s.Capacity }

// CanEnd reports whether userID is the owner or the host.
func (s *Session) CanEnd(userID UserID) bool {
	if userID == "" {
		return false
	}
	if userID == s.OwnerID {
		return true
	}
	h, ok := s.Host()
	return ok && h.UserID == userID
}

// Clone returns a deep copy safe to hand out of the registry.
func (s *Session) Clone() Session {
	out := *s
	out.Participants = make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		out.Participants[i] = p.Clone()
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return out
}

// FeatureOverrides carries the flags a creator chose to set explicitly.
type FeatureOverrides struct {
	ChatEnabled               *bool `json:"chat_enabled,omitempty"`
	RecordingEnabled          *bool `json:"recording_enabled,omitempty"`
	ExpressionAnalysisEnabled *bool `json:"expression_analysis_enabled,omitempty"`
}

func (o FeatureOverrides) Apply(f Features) Features {
	if o.ChatEnabled != nil {
		f.ChatEnabled = *o.ChatEnabled
	}
	if o.RecordingEnabled != nil {
		f.RecordingEnabled = *o.RecordingEnabled
	}
	if o.ExpressionAnalysisEnabled != nil {
		f.ExpressionAnalysisEnabled = *o.ExpressionAnalysisEnabled
	}
	return f
}
