package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	assert.Equal(t, 3, KindCouples.DefaultCapacity())
	assert.Equal(t, 6, KindFamily.DefaultCapacity())
	assert.Equal(t, 4, KindGroup.DefaultCapacity())
	assert.False(t, Kind("solo").Valid())
	assert.True(t, KindFamily.Valid())
}

func TestSession_CanEnd(t *testing.T) {
	now := time.Now()
	s := Session{OwnerID: "owner", Capacity: 4}
	assert.True(t, s.CanEnd("owner"))
	assert.False(t, s.CanEnd("host"))
	assert.False(t, s.CanEnd(""))

	s.Participants = []Participant{
		NewParticipant("host", "Host", nil, true, now),
		NewParticipant("guest", "Guest", nil, false, now),
	}
	assert.True(t, s.CanEnd("host"))
	assert.False(t, s.CanEnd("guest"))
	assert.False(t, s.CanEnd("stranger"))
}

func TestSession_HostAndFull(t *testing.T) {
	s := Session{Capacity: 1}
	_, ok := s.Host()
	assert.False(t, ok)
	assert.False(t, s.Full())

	s.Participants = append(s.Participants, NewParticipant("a", "A", nil, true, time.Now()))
	h, ok := s.Host()
	require.True(t, ok)
	assert.Equal(t, UserID("a"), h.UserID)
	assert.True(t, s.Full())
	assert.Equal(t, 0, s.Participant("a"))
	assert.Equal(t, -1, s.Participant("b"))
}

func TestSession_CloneIsDeep(t *testing.T) {
	started := time.Now()
	s := Session{
		Participants: []Participant{NewParticipant("a", "A", json.RawMessage(`{"os":"ios"}`), true, started)},
		StartedAt:    &started,
	}

	c := s.Clone()
	c.Participants[0].VideoEnabled = false
	c.Participants[0].DeviceInfo[2] = 'O'
	*c.StartedAt = started.Add(time.Hour)

	assert.True(t, s.Participants[0].VideoEnabled)
	assert.JSONEq(t, `{"os":"ios"}`, string(s.Participants[0].DeviceInfo))
	assert.Equal(t, started, *s.StartedAt)
	assert.Nil(t, c.EndedAt)
}

func TestNewRoomRef(t *testing.T) {
	assert.Equal(t, RoomRef("therapy_004213"), NewRoomRef("004213"))
}

func TestFeatureOverrides(t *testing.T) {
	off, on := false, true
	got := FeatureOverrides{ChatEnabled: &off, RecordingEnabled: &on}.Apply(DefaultFeatures())
	assert.Equal(t, Features{RecordingEnabled: true, ExpressionAnalysisEnabled: true}, got)
	assert.Equal(t, DefaultFeatures(), FeatureOverrides{}.Apply(DefaultFeatures()))
}
