package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// handleUpdate toggles media flags or connection state without an HTTP round
// trip. The target defaults to the connection's caller.
func (ctl *SignalWSController) handleUpdate(s *subscriber, data []byte) {
	var p struct {
		Type   string                   `json:"type"`
		UserID domain.UserID            `json:"user_id"`
		Fields domain.ParticipantUpdate `json:"fields"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad update payload")
		ctl.sendJSON(s.conn, errorMessage{Type: "error", Error: "bad_payload"})
		return
	}
	target := p.UserID
	if target == "" {
		target = s.caller
	}

	if _, err := ctl.Registry.UpdateParticipant(s.code, target, p.Fields); err != nil {
		ctl.sendJSON(s.conn, errorMessage{Type: "error", Error: errorCode(err), Message: err.Error()})
		return
	}
	ctl.sendJSON(s.conn, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"user_id"`
	}{Type: "updated", UserID: target})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, domain.ErrImmutableField):
		return "immutable_field"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrEnded):
		return "ended"
	default:
		return "internal"
	}
}
