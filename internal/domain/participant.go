package domain

import (
	"encoding/json"
	"slices"
	"time"
)

type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
)

func (c ConnectionStatus) Valid() bool {
	return c == Connected || c == Disconnected
}

// Participant is one admitted device in a session.
// DeviceInfo is kept verbatim and never inspected.
type Participant struct {
	UserID           UserID           `json:"user_id"`
	DisplayName      string           `json:"display_name"`
	DeviceInfo       json.RawMessage  `json:"device_info,omitempty"`
	IsHost           bool             `json:"is_host"`
	JoinedAt         time.Time        `json:"joined_at"`
	VideoEnabled     bool             `json:"video_enabled"`
	AudioEnabled     bool             `json:"audio_enabled"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
}

// NewParticipant avoids raw literals in the registry and keeps the join
// defaults in one place.
func NewParticipant(userID UserID, displayName string, device json.RawMessage, host bool, now time.Time) Participant {
	return Participant{
		UserID:           userID,
		DisplayName:      displayName,
		DeviceInfo:       slices.Clone(device),
		IsHost:           host,
		JoinedAt:         now,
		VideoEnabled:     true,
		AudioEnabled:     true,
		ConnectionStatus: Connected,
	}
}

func (p Participant) Clone() Participant {
	p.DeviceInfo = slices.Clone(p.DeviceInfo)
	return p
}

// ParticipantUpdate is a partial field set. Nil means "leave unchanged".
// UserID, IsHost and JoinedAt exist only so that callers sending them can be
// told those fields are immutable.
type ParticipantUpdate struct {
	VideoEnabled     *bool             `json:"video_enabled,omitempty"`
	AudioEnabled     *bool             `json:"audio_enabled,omitempty"`
	ConnectionStatus *ConnectionStatus `json:"connection_status,omitempty"`
	DeviceInfo       json.RawMessage   `json:"device_info,omitempty"`

	UserID   *UserID    `json:"user_id,omitempty"`
	IsHost   *bool      `json:"is_host,omitempty"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// Validate rejects immutable fields and unknown connection states.
func (u ParticipantUpdate) Validate() error {
	switch {
	case u.UserID != nil:
		return ImmutableFieldError("user_id")
	case u.IsHost != nil:
		return ImmutableFieldError("is_host")
	case u.JoinedAt != nil:
		return ImmutableFieldError("joined_at")
	}
	if u.ConnectionStatus != nil && !u.ConnectionStatus.Valid() {
		return InvalidInputError("connection_status", "must be connected or disconnected")
	}
	return nil
}

// Apply mutates p with the fields present in u. Call Validate first.
func (u ParticipantUpdate) Apply(p *Participant) {
	if u.VideoEnabled != nil {
		p.VideoEnabled = *u.VideoEnabled
	}
	if u.AudioEnabled != nil {
		p.AudioEnabled = *u.AudioEnabled
	}
	if u.ConnectionStatus != nil {
		p.ConnectionStatus = *u.ConnectionStatus
	}
	if u.DeviceInfo != nil {
		p.DeviceInfo = slices.Clone(u.DeviceInfo)
	}
}
