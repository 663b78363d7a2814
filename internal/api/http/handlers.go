package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/database"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/student"
	"github.com/gin-gonic/gin"
)

// StatusProvider reports the database connection state.
// *database.Manager satisfies it.
type StatusProvider interface {
	Status() database.Status
}

// Handlers holds the routes that are not tied to one collection
type Handlers struct {
	db      StatusProvider
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(db StatusProvider) *Handlers {
	return &Handlers{
		db:      db,
		started: time.Now(),
	}
}

// Root describes the API
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Student Management API",
		"endpoints": gin.H{
			"students":  "/api/students",
			"faculties": "/api/faculties",
			"courses":   "/api/courses",
			"stats":     "/api/students/stats",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}

// Health answers 200 while the database is connected and 503 otherwise
func (h *Handlers) Health(c *gin.Context) {
	status := h.db.Status()

	code := http.StatusOK
	state := "healthy"
	if status.State != database.StateConnected {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(code, gin.H{
		"status":   state,
		"database": status,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

// NotFound handles unknown routes
func (h *Handlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"status":  "error",
		"message": "Route not found",
		"path":    c.Request.URL.Path,
	})
}

// StudentStats aggregates GPA and year statistics over all students
func StudentStats(repo Repository[student.Student]) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := repo.List(c.Request.Context())
		if err != nil {
			fail(c, "Student", err, http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, student.ComputeStats(students))
	}
}

