package http

import (
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/course"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/faculty"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/student"
	"github.com/gin-gonic/gin"
)

// Repositories groups the per-collection stores
type Repositories struct {
	Faculties Repository[faculty.Faculty]
	Students  Repository[student.Student]
	Courses   Repository[course.Course]
}

// RegisterRoutes mounts every API route on router
func RegisterRoutes(router *gin.Engine, h *Handlers, repos Repositories) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	api := router.Group("/api")

	NewResource("Faculty", repos.Faculties, faculty.New, faculty.Input.Changes).
		Register(api.Group("/faculties"))

	students := api.Group("/students")
	students.GET("/stats", StudentStats(repos.Students))
	NewResource("Student", repos.Students, student.New, student.Input.Changes).
		Register(students)

	NewResource("Course", repos.Courses, course.New, course.Input.Changes).
		Register(api.Group("/courses"))

	router.NoRoute(h.NotFound)
}
