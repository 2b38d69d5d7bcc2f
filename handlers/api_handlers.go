package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"student-manager-go/db"
	"student-manager-go/models"
)

// APIHandler holds the dependencies for API handlers, like the data store
type APIHandler struct {
	Store  db.DataStore
	logger *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.DataStore, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		Store:  store,
		logger: logger,
	}
}

// studentRequest is the JSON body of create and update calls
type studentRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Note    string `json:"note"`
}

func (r studentRequest) draft() models.Draft {
	return models.Draft{Name: r.Name, Address: r.Address, Phone: r.Phone, Note: r.Note}
}

// GetAllStudents handles GET /api/students
func (h *APIHandler) GetAllStudents(c *gin.Context) {
	students, err := h.Store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Error in GetAllStudents handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve students"})
		return
	}
	if students == nil {
		// Return empty list instead of null for JSON consistency
		c.JSON(http.StatusOK, []models.StudentRecord{})
		return
	}
	c.JSON(http.StatusOK, students)
}

// CreateStudent handles POST /api/students
func (h *APIHandler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rec, err := h.Store.Insert(c.Request.Context(), req.draft())
	if err != nil {
		h.logger.Error("Error in CreateStudent handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create student: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// UpdateStudent handles PUT /api/students/:id
func (h *APIHandler) UpdateStudent(c *gin.Context) {
	id, ok := apiStudentID(c)
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rec, err := h.Store.Update(c.Request.Context(), id, req.draft())
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	if err != nil {
		h.logger.Error("Error in UpdateStudent handler", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteStudent handles DELETE /api/students/:id
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	id, ok := apiStudentID(c)
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Error in DeleteStudent handler", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Spreadsheet Handlers ---

// ImportStudents handles POST /api/import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.logger.Info("Received file upload", zap.String("file", header.Filename))

	imported, err := db.ImportStudentsFromExcel(c.Request.Context(), h.Store, file, h.logger)
	if err != nil {
		h.logger.Error("Error importing students", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         "Failed to import students: " + err.Error(),
			"importedCount": imported,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": imported,
	})
}

// ExportStudents handles GET /api/export/students
func (h *APIHandler) ExportStudents(c *gin.Context) {
	var buf bytes.Buffer
	n, err := db.ExportStudentsToExcel(c.Request.Context(), h.Store, &buf, h.logger)
	if err != nil {
		h.logger.Error("Error exporting students", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export students"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Header("X-Student-Count", strconv.Itoa(n))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

func apiStudentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student ID must be a positive integer"})
		return 0, false
	}
	return id, true
}
