package applications

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/server/respond"
	"jobboard-backend/internal/users"
)

const maxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Svc *Service
	// ApplyLimit, when set, guards the submit route.
	ApplyLimit gin.HandlerFunc
	// PollLimit, when set, guards the single-application read used for polling.
	PollLimit gin.HandlerFunc
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	apps := rg.Group("/applications")

	apply := []gin.HandlerFunc{middleware.RequireUser()}
	if h.ApplyLimit != nil {
		apply = append(apply, h.ApplyLimit)
	}
	apply = append(apply, h.apply)
	apps.POST("/apply/:job_id", apply...)

	apps.GET("", middleware.RequireAdmin(), h.list)
	apps.GET("/me", middleware.RequireUser(), h.mine)
	get := []gin.HandlerFunc{middleware.RequireUser()}
	if h.PollLimit != nil {
		get = append(get, h.PollLimit)
	}
	apps.GET("/:id", append(get, h.get)...)
	apps.PATCH("/:id", middleware.RequireAdmin(), h.update)
	apps.DELETE("/:id", middleware.RequireAdmin(), h.delete)
}

type updateRequest struct {
	Status      *string `json:"status"`
	AIReasoning *string `json:"aiReasoning"`
}

func (h *Handler) apply(c *gin.Context) {
	jobID := c.Param("job_id")
	c.Set(middleware.JobIDKey, jobID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("resume_file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume_file is required", nil)
		return
	}
	skills, err := parseList(c.PostFormArray("skills"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON format for skills", nil)
		return
	}
	certs, err := parseList(c.PostFormArray("certifications"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON format for certifications", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume_file", nil)
		return
	}
	defer file.Close()

	app, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		JobID:          jobID,
		CandidateID:    middleware.UserIDFromContext(c),
		CoverLetter:    strings.TrimSpace(c.PostForm("cover_letter")),
		Skills:         skills,
		Certifications: certs,
		FileName:       fileHeader.Filename,
		Resume:         file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ApplicationIDKey, app.ID)
	c.Set(middleware.StatusTransitionKey, "->"+string(app.Status))
	respond.Created(c, app)
}

func (h *Handler) list(c *gin.Context) {
	offset, limit := users.Paging(c)
	list, err := h.Svc.List(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"data": list})
}

func (h *Handler) mine(c *gin.Context) {
	offset, limit := users.Paging(c)
	list, err := h.Svc.ListByCandidate(c.Request.Context(), middleware.UserIDFromContext(c), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"data": list})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	view, err := h.Svc.GetFor(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) update(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	view, previous, err := h.Svc.Update(c.Request.Context(), c.Param("id"), Patch{
		Status:      req.Status,
		AIReasoning: req.AIReasoning,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if previous != view.Status {
		c.Set(middleware.StatusTransitionKey, string(previous)+"->"+string(view.Status))
	}
	respond.OK(c, view)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

// parseList accepts repeated form fields, each either a JSON array or a
// comma-separated list.
func parseList(values []string) ([]string, error) {
	out := []string{}
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "[") {
			var items []string
			if err := json.Unmarshal([]byte(raw), &items); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			for _, item := range items {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			continue
		}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, ErrJobNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
