package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"student-manager-go/manager"
	"student-manager-go/models"
	"student-manager-go/render"
)

// PageHandler serves the server-rendered student page
type PageHandler struct {
	Sessions *SessionStore
	logger   *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(sessions *SessionStore, logger *zap.Logger) *PageHandler {
	return &PageHandler{Sessions: sessions, logger: logger}
}

// Show handles GET /
func (h *PageHandler) Show(c *gin.Context) {
	m := h.Sessions.Manager(c)
	// A failed first load is already reflected in the page error banner.
	_ = m.EnsureLoaded(c.Request.Context())

	var buf bytes.Buffer
	if err := render.Page(&buf, render.NewView(m.Snapshot(), m.Printer())); err != nil {
		h.logger.Error("Error rendering page", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Submit handles POST /students. Each posted student field is set on the
// draft, then the draft is created or, while editing, updated.
func (h *PageHandler) Submit(c *gin.Context) {
	m := h.Sessions.Manager(c)
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	for name, values := range c.Request.PostForm {
		f, err := models.ParseField(name)
		if err != nil || len(values) == 0 {
			continue
		}
		m.SetField(f, values[0])
	}
	sub := m.PendingSubmission()
	if err := m.Submit(c.Request.Context()); err != nil {
		h.logger.Warn("Student submission failed",
			zap.Stringer("kind", sub.Kind), zap.Int64("id", sub.ID), zap.Error(err))
	}
	backToPage(c)
}

// Edit handles POST /students/:id/edit
func (h *PageHandler) Edit(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	m := h.Sessions.Manager(c)
	if !m.BeginEditByID(id) {
		h.logger.Debug("Edit requested for unlisted student", zap.Int64("id", id))
	}
	backToPage(c)
}

// Cancel handles POST /cancel
func (h *PageHandler) Cancel(c *gin.Context) {
	h.Sessions.Manager(c).Reset()
	backToPage(c)
}

// ConfirmDelete handles GET /students/:id/delete by asking for confirmation
func (h *PageHandler) ConfirmDelete(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	m := h.Sessions.Manager(c)
	var rec models.StudentRecord
	found := false
	for _, s := range m.Snapshot().Students {
		if s.ID == id {
			rec, found = s, true
			break
		}
	}
	if !found {
		backToPage(c)
		return
	}

	var buf bytes.Buffer
	if err := render.Confirm(&buf, render.NewConfirmView(rec, m.Printer())); err != nil {
		h.logger.Error("Error rendering confirmation", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render confirmation")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Delete handles POST /students/:id/delete; only confirm=yes deletes
func (h *PageHandler) Delete(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	m := h.Sessions.Manager(c)
	confirmed := manager.ConfirmFunc(func(string) bool {
		return c.PostForm("confirm") == "yes"
	})
	if err := m.Delete(c.Request.Context(), id, confirmed); err != nil {
		h.logger.Warn("Student deletion failed", zap.Int64("id", id), zap.Error(err))
	}
	backToPage(c)
}

// Reload handles POST /reload
func (h *PageHandler) Reload(c *gin.Context) {
	m := h.Sessions.Manager(c)
	// Load logs its own failures; the banner shows the generic message.
	_ = m.Load(c.Request.Context())
	backToPage(c)
}

func backToPage(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func studentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, "invalid student id")
		return 0, false
	}
	return id, true
}
