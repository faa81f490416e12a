package server

import (
	"errors"
	"net/http"
	"statboard/internal/controller"
	"statboard/internal/model"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type noteRequest struct {
	Note string `json:"note" form:"note"`
}

type deleteNoteRequest struct {
	NoteID string `json:"noteId" binding:"required"`
}

func (s *Server) createNoteHandler(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	note, err := s.nc.CreateNote(c.Request.Context(), currentUser(c), req.Note)
	if err != nil {
		respondNoteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Note added!", "note": note})
}

func (s *Server) myNotesHandler(c *gin.Context) {
	notes, err := s.nc.UserNotes(c.Request.Context(), currentUser(c))
	if err != nil {
		respondNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, notes)
}

func (s *Server) listNotesHandler(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size parameter"})
		return
	}

	opts := model.PaginationOptions{Page: page, Size: size}
	notes, total, err := s.nc.ListNotes(c.Request.Context(), opts)
	if err != nil {
		respondNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": total,
		"page":  page,
	})
}

// getNoteHandler is public, so any note can be shared by link
func (s *Server) getNoteHandler(c *gin.Context) {
	note, err := s.nc.GetNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

func (s *Server) deleteNoteHandler(c *gin.Context) {
	var req deleteNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "noteId is required"})
		return
	}

	if err := s.nc.DeleteNote(c.Request.Context(), currentUser(c), req.NoteID); err != nil {
		respondNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func respondNoteError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, controller.ErrNoteTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note is too short!"})
	case errors.Is(err, controller.ErrInvalidNoteID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note id"})
	case errors.Is(err, controller.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
	case errors.Is(err, controller.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own notes"})
	default:
		log.Error().Err(err).Msg("Note request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
