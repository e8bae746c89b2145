package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/server/respond"
	"jobboard-backend/internal/users"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	jobs.GET("", h.list)
	jobs.GET("/:id", h.get)
	jobs.POST("", middleware.RequireAdmin(), h.create)
	jobs.PUT("/:id", middleware.RequireAdmin(), h.update)
	jobs.DELETE("/:id", middleware.RequireAdmin(), h.delete)
}

type createRequest struct {
	Title                  string   `json:"title" binding:"required"`
	Role                   string   `json:"role" binding:"required"`
	Description            string   `json:"description" binding:"required"`
	Company                string   `json:"company" binding:"required"`
	Location               string   `json:"location" binding:"required"`
	RequiredSkills         []string `json:"requiredSkills"`
	RequiredCertifications []string `json:"requiredCertifications"`
}

type updateRequest struct {
	Title                  *string   `json:"title"`
	Role                   *string   `json:"role"`
	Description            *string   `json:"description"`
	Company                *string   `json:"company"`
	Location               *string   `json:"location"`
	RequiredSkills         *[]string `json:"requiredSkills"`
	RequiredCertifications *[]string `json:"requiredCertifications"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid job payload", err.Error())
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), Input{
		Title:                  req.Title,
		Role:                   req.Role,
		Description:            req.Description,
		Company:                req.Company,
		Location:               req.Location,
		RequiredSkills:         req.RequiredSkills,
		RequiredCertifications: req.RequiredCertifications,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.JobIDKey, job.ID)
	respond.Created(c, job)
}

func (h *Handler) list(c *gin.Context) {
	offset, limit := users.Paging(c)
	list, err := h.Svc.ListViews(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"data": list})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.JobIDKey, c.Param("id"))
	view, err := h.Svc.GetView(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) update(c *gin.Context) {
	c.Set(middleware.JobIDKey, c.Param("id"))
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid job payload", err.Error())
		return
	}
	job, err := h.Svc.Update(c.Request.Context(), c.Param("id"), Patch{
		Title:                  req.Title,
		Role:                   req.Role,
		Description:            req.Description,
		Company:                req.Company,
		Location:               req.Location,
		RequiredSkills:         req.RequiredSkills,
		RequiredCertifications: req.RequiredCertifications,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set(middleware.JobIDKey, c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrHasApplications):
		respond.Error(c, http.StatusConflict, "conflict", "job has applications and cannot be deleted", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
