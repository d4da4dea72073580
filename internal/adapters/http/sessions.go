package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/app"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// ArchiveReader is the read side of the audit archive.
type ArchiveReader interface {
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	ListByOwner(ctx context.Context, owner domain.UserID) ([]domain.Session, error)
}

type sessionHandler struct {
	reg     *app.Registry
	archive ArchiveReader
}

type createRequest struct {
	Kind     domain.Kind             `json:"kind" binding:"required"`
	Capacity *int                    `json:"capacity"`
	Features domain.FeatureOverrides `json:"features"`
}

type createResponse struct {
	ID      domain.SessionID `json:"id"`
	Code    domain.Code      `json:"code"`
	RoomRef domain.RoomRef   `json:"room_ref"`
	Session domain.Session   `json:"session"`
}

// POST /api/sessions. The caller becomes the owner.
func (h *sessionHandler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.reg.Create(app.CreateParams{
		Kind:     req.Kind,
		OwnerID:  callerID(c),
		Capacity: req.Capacity,
		Features: req.Features,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createResponse{ID: sess.ID, Code: sess.Code, RoomRef: sess.RoomRef, Session: sess})
}

type joinRequest struct {
	Code        domain.Code     `json:"code" binding:"required"`
	UserID      domain.UserID   `json:"user_id"`
	DisplayName string          `json:"display_name"`
	DeviceInfo  json.RawMessage `json:"device_info"`
}

type joinResponse struct {
	Participant domain.Participant `json:"participant"`
	Session     domain.Session     `json:"session"`
}

// POST /api/sessions/join
func (h *sessionHandler) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	uid := actingUser(c, req.UserID)
	device := req.DeviceInfo
	if len(device) == 0 || string(device) == "null" {
		device = requestDeviceInfo(c)
	}
	p, sess, err := h.reg.Join(req.Code, uid, req.DisplayName, device)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, joinResponse{Participant: p, Session: sess})
}

// requestDeviceInfo records where a join came from when the client did not
// describe its device.
func requestDeviceInfo(c *gin.Context) json.RawMessage {
	b, _ := json.Marshal(struct {
		ClientType string `json:"client_type"`
		UserAgent  string `json:"user_agent,omitempty"`
		RemoteAddr string `json:"remote_addr"`
	}{
		ClientType: "web",
		UserAgent:  c.Request.UserAgent(),
		RemoteAddr: c.ClientIP(),
	})
	return b
}

// GET /api/sessions/:code
func (h *sessionHandler) status(c *gin.Context) {
	sess, err := h.reg.Status(domain.Code(c.Param("code")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// PATCH /api/sessions/:code/participants/:user_id
func (h *sessionHandler) updateParticipant(c *gin.Context) {
	var upd domain.ParticipantUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	_, err := h.reg.UpdateParticipant(domain.Code(c.Param("code")), domain.UserID(c.Param("user_id")), upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type endRequest struct {
	UserID domain.UserID `json:"user_id"`
}

// POST /api/sessions/:code/end. The body is optional.
func (h *sessionHandler) end(c *gin.Context) {
	var req endRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	uid := actingUser(c, req.UserID)
	sess, err := h.reg.End(domain.Code(c.Param("code")), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GET /api/archive/sessions/:id
func (h *sessionHandler) archived(c *gin.Context) {
	sess, err := h.archive.Get(c.Request.Context(), domain.SessionID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.OwnerID != callerID(c) {
		writeError(c, domain.ErrNotAuthorized)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GET /api/archive/sessions lists the caller's own archived sessions.
func (h *sessionHandler) archivedList(c *gin.Context) {
	list, err := h.archive.ListByOwner(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}
