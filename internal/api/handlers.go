package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/scheduler"
)

// ArticleReader is the read side of the article store.
type ArticleReader interface {
	RecentN(ctx context.Context, n int) ([]domain.Article, error)
	Count(ctx context.Context) (int, error)
}

// CycleStatus exposes the scheduler state.
type CycleStatus interface {
	State() scheduler.State
	LastReport() (scheduler.CycleReport, bool)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	State     string                 `json:"state"`
	Articles  int                    `json:"articles"`
	LastCycle *scheduler.CycleReport `json:"last_cycle,omitempty"`
}

// RecentResponse is the body of GET /api/v1/articles/recent.
type RecentResponse struct {
	Articles []domain.Article `json:"articles"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit"`
}

// Handler serves the read-only endpoints.
type Handler struct {
	articles ArticleReader
	status   CycleStatus
	version  string
	log      logger.Logger
}

// NewHandler creates a Handler. status may be nil when no scheduler runs.
func NewHandler(articles ArticleReader, status CycleStatus, version string, log logger.Logger) *Handler {
	return &Handler{
		articles: articles,
		status:   status,
		version:  version,
		log:      log,
	}
}

// Health reports liveness plus the last cycle. A failing store makes it 503.
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		State:   scheduler.StateIdle.String(),
	}

	if h.status != nil {
		resp.State = h.status.State().String()
		if report, ok := h.status.LastReport(); ok {
			resp.LastCycle = &report
		}
	}

	count, err := h.articles.Count(c.Request.Context())
	if err != nil {
		h.log.Warn("Health check store query failed", logger.Error(err))
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp.Articles = count

	c.JSON(http.StatusOK, resp)
}

// RecentArticles lists the newest stored articles.
func (h *Handler) RecentArticles(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		respondBadRequest(c, "limit must be an integer")
		return
	}

	articles, err := h.articles.RecentN(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		respondInternalError(c, "failed to load articles")
		return
	}

	c.JSON(http.StatusOK, RecentResponse{
		Articles: articles,
		Count:    len(articles),
		Limit:    limit,
	})
}
