package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/shared/utils"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/store"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// Repository is the document store surface a resource needs.
// *store.Collection satisfies it.
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, doc *T) (*T, error)
	Update(ctx context.Context, id string, changes bson.M) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Resource serves CRUD routes for one document type. I is the request body
// type; build turns it into a new document and changes into a $set update.
type Resource[T any, I any] struct {
	entity  string
	repo    Repository[T]
	build   func(in I, now time.Time) (*T, error)
	changes func(in I) (bson.M, error)
	now     func() time.Time
}

// NewResource creates a resource handler set
func NewResource[T any, I any](
	entity string,
	repo Repository[T],
	build func(in I, now time.Time) (*T, error),
	changes func(in I) (bson.M, error),
) *Resource[T, I] {
	return &Resource[T, I]{
		entity:  entity,
		repo:    repo,
		build:   build,
		changes: changes,
		now:     time.Now,
	}
}

// Register mounts the CRUD routes on group
func (r *Resource[T, I]) Register(group *gin.RouterGroup) {
	group.GET("", r.List)
	group.GET("/:id", r.Get)
	group.POST("", r.Create)
	group.PUT("/:id", r.Update)
	group.DELETE("/:id", r.Delete)
}

// List returns every document
func (r *Resource[T, I]) List(c *gin.Context) {
	docs, err := r.repo.List(c.Request.Context())
	if err != nil {
		r.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Get returns one document by id
func (r *Resource[T, I]) Get(c *gin.Context) {
	doc, err := r.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Create stores a new document built from the request body
func (r *Resource[T, I]) Create(c *gin.Context) {
	in, ok := r.bind(c)
	if !ok {
		return
	}

	doc, err := r.build(in, r.now())
	if err != nil {
		r.fail(c, err, http.StatusBadRequest)
		return
	}

	saved, err := r.repo.Insert(c.Request.Context(), doc)
	if err != nil {
		r.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Update applies the supplied fields to an existing document
func (r *Resource[T, I]) Update(c *gin.Context) {
	if _, err := store.ParseID(c.Param("id")); err != nil {
		r.fail(c, err, http.StatusBadRequest)
		return
	}

	in, ok := r.bind(c)
	if !ok {
		return
	}

	set, err := r.changes(in)
	if err != nil {
		r.fail(c, err, http.StatusBadRequest)
		return
	}

	doc, err := r.repo.Update(c.Request.Context(), c.Param("id"), set)
	if err != nil {
		r.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Delete removes a document
func (r *Resource[T, I]) Delete(c *gin.Context) {
	if err := r.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		r.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": r.entity + " deleted"})
}

// bind decodes the JSON body. An empty body is an empty input.
func (r *Resource[T, I]) bind(c *gin.Context) (I, bool) {
	var in I
	err := c.ShouldBindJSON(&in)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return in, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond(c, err, http.StatusRequestEntityTooLarge, "request body too large")
		return in, false
	}
	respond(c, err, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return in, false
}

func (r *Resource[T, I]) fail(c *gin.Context, err error, fallback int) {
	fail(c, r.entity, err, fallback)
}

// fail maps store and validation errors onto status codes. Anything else
// gets fallback.
func fail(c *gin.Context, entity string, err error, fallback int) {
	switch {
	case errors.Is(err, store.ErrUnavailable):
		respond(c, err, http.StatusServiceUnavailable, store.ErrUnavailable.Error())
	case errors.Is(err, store.ErrInvalidID):
		respond(c, err, http.StatusBadRequest, "Invalid "+entity+" id")
	case errors.Is(err, store.ErrNotFound):
		respond(c, err, http.StatusNotFound, entity+" not found")
	case errors.Is(err, utils.ErrValidation):
		respond(c, err, http.StatusBadRequest, err.Error())
	default:
		respond(c, err, fallback, err.Error())
	}
}

func respond(c *gin.Context, err error, status int, message string) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
