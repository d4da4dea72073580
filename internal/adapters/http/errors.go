package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/app"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/archive"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errorTable = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrParticipantNotFound, http.StatusNotFound, "participant_not_found"},
	{domain.ErrEnded, http.StatusGone, "ended"},
	{domain.ErrAlreadyEnded, http.StatusConflict, "already_ended"},
	{domain.ErrFull, http.StatusConflict, "full"},
	{domain.ErrAlreadyJoined, http.StatusConflict, "already_joined"},
	{domain.ErrImmutableField, http.StatusBadRequest, "immutable_field"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{archive.ErrNotFound, http.StatusNotFound, "not_found"},
	{app.ErrCodesExhausted, http.StatusServiceUnavailable, "codes_exhausted"},
}

func writeError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			c.AbortWithStatusJSON(e.status, errorResponse{Error: e.code, Message: err.Error()})
			return
		}
	}
	log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: err.Error()})
}
