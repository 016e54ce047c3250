package handlers

import (
	"net/http"

	"airport_manager/internal/models"

	"github.com/gin-gonic/gin"
)

type noteRequest struct {
	Text string `json:"text" validate:"max=1000"`
}

func (h *APIHandler) ListNotes(c *gin.Context) {
	notes, err := h.noteService.ListNotes(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *APIHandler) AddNote(c *gin.Context) {
	var req noteRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.noteService.AddNote(c.Request.Context(), session(c), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *APIHandler) DeleteNote(c *gin.Context) {
	if err := h.noteService.DeleteNote(c.Request.Context(), session(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) GetDraft(c *gin.Context) {
	draft, err := h.draftService.GetDraft(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *APIHandler) SaveDraft(c *gin.Context) {
	var draft models.OrderDraft
	if !bind(c, &draft) {
		return
	}
	saved, err := h.draftService.SaveDraft(c.Request.Context(), session(c), draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *APIHandler) DiscardDraft(c *gin.Context) {
	if err := h.draftService.DiscardDraft(c.Request.Context(), session(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
