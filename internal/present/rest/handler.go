package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"github.com/y4gg/portfolio-api"
	"github.com/y4gg/portfolio-api/internal/domain"
	"github.com/y4gg/portfolio-api/internal/present/rest/presenter"
	"github.com/y4gg/portfolio-api/internal/service"
	"github.com/y4gg/portfolio-api/internal/usecase"
)

type Handler struct {
	blog     *usecase.BlogUsecase
	verifier usecase.KeyVerifier
	signal   *service.SignalService
}

// NewHandler wires the REST surface. signal may be nil when realtime
// updates are disabled.
func NewHandler(
	blog *usecase.BlogUsecase,
	verifier usecase.KeyVerifier,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		blog:     blog,
		verifier: verifier,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/auth", h.handleAuth)
	e.GET("/blogs", h.handleList)
	e.POST("/blogs", h.handleCreate)
	e.GET("/blogs/slug/:slug", h.handleGetBySlug)
	e.GET("/blogs/blog", h.handleGetByQuery)
	e.POST("/blogs/blog", h.handleCreate)
	e.PUT("/blogs/blog", h.handleUpdate)
	e.DELETE("/blogs/blog", h.handleDelete)
	e.GET("/realtime", h.handleRealtime)
}

type mutateRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags,omitempty"`
	APIKey  string   `json:"apiKey"`
}

type deleteRequest struct {
	Slug   string `json:"slug"`
	APIKey string `json:"apiKey"`
}

func (h *Handler) handleAuth(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifier.Verify(ctx, c.QueryParam("value")) {
		return c.String(http.StatusOK, "OK")
	}
	return c.String(http.StatusUnauthorized, "Unauthorized")
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	posts, err := h.blog.List(ctx)
	if err != nil {
		slog.ErrorContext(
			ctx, "Error fetching blogs",
			slog.String("error", err.Error()),
			slog.String("module", "blog"),
		)
		return presenter.InternalErrorMessage(c, "Failed to fetch blogs")
	}
	return respondCachable(c, posts)
}

func (h *Handler) handleGetBySlug(c echo.Context) error {
	return h.getPost(c, c.Param("slug"))
}

func (h *Handler) handleGetByQuery(c echo.Context) error {
	slug := c.QueryParam("slug")
	if slug == "" {
		return presenter.BadRequestMessage(c, "No slug provided")
	}
	return h.getPost(c, slug)
}

func (h *Handler) getPost(c echo.Context, slug string) error {
	ctx := c.Request().Context()

	post, err := h.blog.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Blog post not found")
		}
		slog.ErrorContext(
			ctx, "Error fetching blog",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
			slog.String("module", "blog"),
		)
		return presenter.InternalErrorMessage(c, "Failed to fetch blog post")
	}
	return respondCachable(c, post)
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var req mutateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.blog.Create(ctx, usecase.MutationInput{
		Key:     req.APIKey,
		Title:   req.Title,
		Content: req.Content,
		Slug:    req.Slug,
		Tags:    req.Tags,
	})
	if err != nil {
		return h.mutationError(c, err, "Failed to create blog post")
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	var req mutateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.blog.Update(ctx, usecase.MutationInput{
		Key:     req.APIKey,
		Title:   req.Title,
		Content: req.Content,
		Slug:    req.Slug,
		Tags:    req.Tags,
	})
	if err != nil {
		return h.mutationError(c, err, "Failed to update blog post")
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.blog.Delete(ctx, req.APIKey, req.Slug); err != nil {
		return h.mutationError(c, err, "Failed to delete blog post")
	}
	return presenter.OK(c, echo.Map{"message": "Blog post deleted successfully"})
}

func (h *Handler) mutationError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return presenter.Unauthorized(c, "Invalid API key")
	case errors.Is(err, domain.ErrInvalidInput):
		return presenter.BadRequestMessage(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return presenter.Conflict(c, "Blog post with this slug already exists")
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, "Blog post not found")
	default:
		slog.Error(
			fallback,
			slog.String("error", err.Error()),
			slog.String("module", "blog"),
		)
		return presenter.InternalErrorMessage(c, fallback)
	}
}

// respondCachable writes payload with an xxh3 ETag so pollers can skip
// unchanged bodies.
func respondCachable(c echo.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	etag := fmt.Sprintf(`"%x"`, xxh3.Hash(body))
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	c.Response().Header().Set("ETag", etag)
	return c.JSONBlob(http.StatusOK, body)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime updates are not enabled"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan portfolio.Event)
	go func() {
		h.signal.Realtime(ctx, output)
		close(output)
	}()

	quit := make(chan struct{})
	go func() {
		for {
			// clients only send heartbeats; any read error means the
			// socket is gone
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if !ok || !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
					slog.DebugContext(
						ctx, "WebSocket closed",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				close(quit)
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event, ok := <-output:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
