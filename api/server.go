// Package api is the main api web server
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aouyang1/einkframe/api/models"
	"github.com/aouyang1/einkframe/api/web/templates"
	"github.com/aouyang1/einkframe/photocache"
	"github.com/aouyang1/einkframe/slideshow"
	"github.com/aouyang1/einkframe/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-Id"

// PowerSwitch turns the panel output on and off.
type PowerSwitch interface {
	Enabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) error
}

// Syncer pulls photos from remote storage into the cache.
type Syncer interface {
	SyncFolder(ctx context.Context) (SyncResult, error)
}

// Submitter runs work in the background.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error) bool
}

type WebServerConfig struct {
	DB    *store.Database
	Cache *photocache.Cache
	Frame *slideshow.Controller
	Power PowerSwitch

	// Remote is nil when no bucket is configured.
	Remote Syncer
	// Tasks runs redraws after display settings change; nil runs them on a
	// new goroutine.
	Tasks Submitter

	// Address is advertised on the info screen.
	Address string
}

type WebServer struct {
	router *gin.Engine
	db     *store.Database
	cache  *photocache.Cache
	frame  *slideshow.Controller
	power  PowerSwitch
	remote Syncer
	tasks  Submitter

	address string

	// toggleMu makes the running check and the start or stop one step.
	toggleMu sync.Mutex
}

func NewWebServer(cfg WebServerConfig) *WebServer {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())

	ws := &WebServer{
		router:  router,
		db:      cfg.DB,
		cache:   cfg.Cache,
		frame:   cfg.Frame,
		power:   cfg.Power,
		remote:  cfg.Remote,
		tasks:   cfg.Tasks,
		address: cfg.Address,
	}

	// Setup routes
	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Navigation
	ws.router.POST("/next", ws.handleNext)
	ws.router.POST("/prev", ws.handlePrevious)
	ws.router.POST("/photos/:id/show", ws.handleShowPhoto)

	// Cache
	ws.router.GET("/photos", ws.handleListPhotos)
	ws.router.GET("/photos/:id/image", ws.handlePhotoImage)
	ws.router.POST("/sync", ws.handleSync)
	ws.router.POST("/clear-cache", ws.handleClearCache)

	// Slideshow
	ws.router.POST("/slideshow/start", ws.handleStart)
	ws.router.POST("/slideshow/stop", ws.handleStop)
	ws.router.GET("/api/status", ws.handleStatus)
	ws.router.POST("/info", ws.handleInfo)

	// Settings
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings", ws.handleUpdateSettings)
	ws.router.GET("/schedule", ws.handleGetSchedule)
	ws.router.PUT("/schedule", ws.handleUpdateSchedule)
	ws.router.GET("/display", ws.handleGetDisplay)
	ws.router.PUT("/display/:state", ws.handleUpdateDisplay)
}

// Handler exposes the router, mostly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start web server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	slog.Info("web server stopped")
	return nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}

// errorStatus maps slideshow errors to http status codes.
func errorStatus(err error) int {
	var intervalErr *slideshow.InvalidIntervalError
	var renderErr *slideshow.RenderError
	switch {
	case errors.Is(err, slideshow.ErrNoPhotos):
		return http.StatusConflict
	case errors.Is(err, slideshow.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.As(err, &intervalErr):
		return http.StatusBadRequest
	case errors.As(err, &renderErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, msg string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Warn(msg, "error", err, "request_id", c.GetString("request_id"))
	}
	c.JSON(status, models.ErrorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}

func (ws *WebServer) submit(name string, fn func(ctx context.Context) error) {
	if ws.tasks != nil {
		ws.tasks.Submit(name, fn)
		return
	}
	go func() {
		if err := fn(context.Background()); err != nil {
			slog.Warn("background task failed", "task", name, "error", err)
		}
	}()
}

func (ws *WebServer) handleIndex(c *gin.Context) {
	status, err := ws.frame.Status()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error reading status: %v", err))
		return
	}
	stats, err := ws.cache.Stats()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error reading cache: %v", err))
		return
	}
	photos, err := ws.listPhotos()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error fetching photos: %v", err))
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	page := templates.StatusPage(templates.StatusData{
		Status:         status,
		Cache:          stats,
		Photos:         photos,
		SyncConfigured: ws.remote != nil,
	})
	if err := page.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render status page", "error", err)
	}
}

func (ws *WebServer) handleNext(c *gin.Context) {
	ref, err := ws.frame.Next(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to show next photo", err)
		return
	}
	c.JSON(http.StatusOK, models.PhotoResponse{Photo: ref})
}

func (ws *WebServer) handlePrevious(c *gin.Context) {
	ref, err := ws.frame.Previous(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to show previous photo", err)
		return
	}
	c.JSON(http.StatusOK, models.PhotoResponse{Photo: ref})
}

func (ws *WebServer) handleShowPhoto(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Photo id is required"})
		return
	}

	ref, err := ws.frame.GotoSpecific(c.Request.Context(), id)
	if err != nil {
		writeError(c, "Failed to show photo", err)
		return
	}
	c.JSON(http.StatusOK, models.PhotoResponse{Photo: ref})
}

func (ws *WebServer) listPhotos() ([]slideshow.PhotoRef, error) {
	cached, err := ws.cache.ListCachedPhotos()
	if err != nil {
		return nil, err
	}
	return slideshow.BuildCatalog(cached, slideshow.OrderSequential), nil
}

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	photos, err := ws.listPhotos()
	if err != nil {
		writeError(c, "Failed to list photos", err)
		return
	}
	c.JSON(http.StatusOK, models.PhotoListResponse{Photos: photos, Total: len(photos)})
}

func (ws *WebServer) handlePhotoImage(c *gin.Context) {
	photo, err := ws.cache.Lookup(c.Param("id"))
	if err != nil {
		writeError(c, "Photo file not found", err)
		return
	}

	// Serve the file
	c.File(photo.Path)
}

// StartSlideshow starts cycling at minutes, or at the stored interval when
// minutes is zero, and persists the slideshow as enabled.
func (ws *WebServer) StartSlideshow(ctx context.Context, minutes int) (int, error) {
	if minutes == 0 {
		settings, err := ws.db.GetSettings()
		if err != nil {
			return 0, err
		}
		minutes = settings.Slideshow.IntervalMinutes
		if !slideshow.ValidInterval(minutes) {
			slog.Warn("stored interval is not allowed, using default",
				"interval_minutes", minutes, "default", slideshow.DefaultIntervalMinutes)
			minutes = slideshow.DefaultIntervalMinutes
		}
	}

	if err := ws.frame.Start(ctx, minutes); err != nil {
		return 0, err
	}

	enabled := true
	if _, err := ws.db.UpdateSettings(store.SettingsUpdate{Enabled: &enabled, IntervalMinutes: &minutes}); err != nil {
		slog.Warn("unable to persist slideshow start", "error", err)
	}
	return minutes, nil
}

// StopSlideshow stops cycling and persists the slideshow as disabled.
func (ws *WebServer) StopSlideshow() {
	ws.frame.Stop()

	enabled := false
	if _, err := ws.db.UpdateSettings(store.SettingsUpdate{Enabled: &enabled}); err != nil {
		slog.Warn("unable to persist slideshow stop", "error", err)
	}
}

// ToggleSlideshow stops a running slideshow or starts a stopped one.
func (ws *WebServer) ToggleSlideshow(ctx context.Context) error {
	ws.toggleMu.Lock()
	defer ws.toggleMu.Unlock()

	if ws.frame.IsRunning() {
		ws.StopSlideshow()
		return nil
	}
	_, err := ws.StartSlideshow(ctx, 0)
	return err
}

func (ws *WebServer) handleStart(c *gin.Context) {
	var req models.StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
			return
		}
	}

	minutes := 0
	if req.IntervalMinutes != nil {
		minutes = *req.IntervalMinutes
		if !slideshow.ValidInterval(minutes) {
			writeError(c, "Failed to start slideshow", &slideshow.InvalidIntervalError{Minutes: minutes})
			return
		}
	}

	if _, err := ws.StartSlideshow(c.Request.Context(), minutes); err != nil {
		writeError(c, "Failed to start slideshow", err)
		return
	}
	ws.handleStatus(c)
}

func (ws *WebServer) handleStop(c *gin.Context) {
	ws.StopSlideshow()
	ws.handleStatus(c)
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	status, err := ws.frame.Status()
	if err != nil {
		writeError(c, "Failed to get status", err)
		return
	}
	stats, err := ws.cache.Stats()
	if err != nil {
		writeError(c, "Failed to get cache stats", err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: status, Cache: stats})
}

// InfoScreen is the content shown for an info request.
func (ws *WebServer) InfoScreen() slideshow.InfoScreen {
	return slideshow.InfoScreen{
		Address:        ws.address,
		SyncConfigured: ws.remote != nil,
	}
}

func (ws *WebServer) handleInfo(c *gin.Context) {
	if err := ws.frame.ShowInfo(c.Request.Context(), ws.InfoScreen()); err != nil {
		writeError(c, "Failed to show info screen", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "info screen shown"})
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	settings, err := ws.db.GetSettings()
	if err != nil {
		writeError(c, "Failed to get settings", err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req store.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	settings, err := ws.db.UpdateSettings(req)
	if err != nil {
		writeError(c, "Failed to update settings", err)
		return
	}

	ctx := c.Request.Context()
	interval := settings.Slideshow.IntervalMinutes
	switch {
	case req.Enabled != nil && !*req.Enabled:
		ws.frame.Stop()
	case req.Enabled != nil && *req.Enabled && !ws.frame.IsRunning(),
		req.TouchesInterval() && ws.frame.IsRunning():
		// an interval change only applies once the job is re-armed
		if err := ws.frame.Start(ctx, interval); err != nil {
			writeError(c, "Failed to restart slideshow", err)
			return
		}
	}

	if req.TouchesDisplay() {
		if _, shown := ws.frame.Selector().Current(); shown {
			ws.submit("redraw", func(ctx context.Context) error {
				_, err := ws.frame.ShowCurrent(ctx)
				return err
			})
		}
	}

	c.JSON(http.StatusOK, settings)
}

func (ws *WebServer) handleGetSchedule(c *gin.Context) {
	schedule, err := ws.db.GetSchedule()
	if err != nil {
		writeError(c, "Failed to get schedule", err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (ws *WebServer) handleUpdateSchedule(c *gin.Context) {
	var req store.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ws.db.UpsertSchedule(&req); err != nil {
		writeError(c, "Failed to update schedule", err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (ws *WebServer) handleGetDisplay(c *gin.Context) {
	if ws.power == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Display power control is not configured"})
		return
	}

	enabled, err := ws.power.Enabled(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to get display state", err)
		return
	}

	c.JSON(http.StatusOK, models.DisplayStateResponse{Enabled: enabled})
}

func (ws *WebServer) handleUpdateDisplay(c *gin.Context) {
	if ws.power == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Display power control is not configured"})
		return
	}

	state := c.Param("state")
	if state != "0" && state != "1" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "state must be 0 (off) or 1 (on)"})
		return
	}

	ctx := c.Request.Context()
	desiredEnabled := state == "1"
	if err := ws.power.SetEnabled(ctx, desiredEnabled); err != nil {
		writeError(c, "Failed to update display state", err)
		return
	}

	// Re-read state to reflect actual output if possible.
	enabled, err := ws.power.Enabled(ctx)
	if err != nil {
		slog.Warn("failed to re-read display state after update", "error", err)
		enabled = desiredEnabled
	}

	c.JSON(http.StatusOK, models.DisplayStateResponse{Enabled: enabled})
}

func (ws *WebServer) handleSync(c *gin.Context) {
	if ws.remote == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Remote sync is not configured"})
		return
	}

	result, err := ws.remote.SyncFolder(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to sync photos", err)
		return
	}
	c.JSON(http.StatusOK, models.SyncResponse{Downloaded: result.Downloaded, Deleted: result.Deleted})
}

func (ws *WebServer) handleClearCache(c *gin.Context) {
	removed, err := ws.cache.Clear()
	if err != nil {
		writeError(c, "Failed to clear cache", err)
		return
	}
	slog.Info("cleared photo cache", "removed", removed)
	c.JSON(http.StatusOK, models.ClearCacheResponse{Removed: removed})
}
