package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hlane/httpqueue/internal/admission"
	"github.com/hlane/httpqueue/internal/domain"
	"github.com/hlane/httpqueue/internal/store"
)

// JobHandler exposes the admission operation and a Job lookup over HTTP.
type JobHandler struct {
	admission *admission.Service
	store     store.Store
	logger    *slog.Logger
}

func NewJobHandler(admission *admission.Service, store store.Store, logger *slog.Logger) *JobHandler {
	return &JobHandler{admission: admission, store: store, logger: logger.With("component", "job_handler")}
}

type createJobRequest struct {
	URL     string         `json:"url"     binding:"required,url"`
	Method  string         `json:"method"  binding:"required,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Headers map[string]any `json:"headers"`
	Body    any            `json:"body"`
	RunAt   *time.Time     `json:"run_at"`
	Cron    *string        `json:"cron"`
}

// Create admits a job. It responds 200 with the job id as plain text
// followed by a newline — clients are expected to treat the body as an
// opaque token, not parsed JSON.
func (h *JobHandler) Create(ctx *gin.Context) {
	var req createJobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, errBadRequest)
		return
	}

	id, err := h.admission.Admit(ctx.Request.Context(), admission.Request{
		URL:     req.URL,
		Method:  req.Method,
		Headers: req.Headers,
		Body:    req.Body,
		RunAt:   req.RunAt,
		Cron:    req.Cron,
	})
	if err != nil {
		h.logger.Error("admit job", "error", err)
		ctx.String(http.StatusInternalServerError, errInternalServer)
		return
	}

	ctx.String(http.StatusOK, "%s\n", id)
}

// GetByID returns the full Job record.
func (h *JobHandler) GetByID(ctx *gin.Context) {
	jobID := ctx.Param("id")

	job, err := h.store.FindByID(ctx.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			ctx.String(http.StatusNotFound, errJobNotFound)
			return
		}
		h.logger.Error("get job by id", "job_id", jobID, "error", err)
		ctx.String(http.StatusInternalServerError, errInternalServer)
		return
	}

	ctx.JSON(http.StatusOK, job)
}
