package http

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/middleware"
	notessvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/notes/service"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotesHandler struct {
	svc notessvc.Service
	log *zap.Logger
}

func NewNotesHandler(svc notessvc.Service, log *zap.Logger) *NotesHandler {
	return &NotesHandler{svc: svc, log: log}
}

func toNoteResponse(n model.Note) dto.NoteResponse {
	return dto.NoteResponse{ID: n.ID, Body: n.Body, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func (h *NotesHandler) List(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	notes, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	out := make([]dto.NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	c.JSON(http.StatusOK, out)
}

func (h *NotesHandler) Create(c *gin.Context) {
	var body dto.NoteDTO
	if !bindJSON(c, &body) {
		return
	}
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	note, err := h.svc.Create(c.Request.Context(), p, body)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, toNoteResponse(note))
}

func (h *NotesHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	note, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(note))
}

func (h *NotesHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body dto.NoteDTO
	if !bindJSON(c, &body) {
		return
	}
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	note, err := h.svc.Update(c.Request.Context(), p, id, body)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(note))
}

func (h *NotesHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	if err := h.svc.Delete(c.Request.Context(), p, id); err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}
