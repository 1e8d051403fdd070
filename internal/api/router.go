package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"armybuilder/internal/blob"
	"armybuilder/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server bundles what the handlers need.
type Server struct {
	Storage     *Storage
	Sessions    *Sessions
	Bundle      *i18n.Bundle
	Blob        blob.Store
	Metrics     *Metrics
	Log         *zap.Logger
	DefaultLang string
	DatasetsDir string
	EnumsDir    string
}

func NewRouter(srv *Server) *gin.Engine {
	if srv.Log == nil {
		srv.Log = zap.NewNop()
	}
	if srv.Sessions == nil {
		srv.Sessions = NewSessions(0)
	}

	r := gin.New()
	r.Use(gin.Recovery(), LocaleMiddleware(srv.DefaultLang), RequestLogger(srv.Log, srv.Metrics))

	if srv.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srv.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta/locale", MetaLocaleHandler(srv))
		apiGroup.GET("/meta/categories", MetaCategoriesHandler(srv))
		apiGroup.GET("/meta/magic-items", MetaMagicItemsHandler(srv))
		apiGroup.GET("/meta/catalogs/:name", MetaCatalogHandler(srv))

		// static service routes first
		apiGroup.GET("/datasets", DatasetsHandler(srv))
		apiGroup.POST("/datasets/:army/_export", ExportHandler(srv))
		apiGroup.POST("/datasets/:army/:category/:id/restore", RestoreHandler(srv))

		apiGroup.POST("/datasets/:army/:category", CreateHandler(srv))
		apiGroup.GET("/datasets/:army/:category", ListHandler(srv))
		apiGroup.GET("/datasets/:army/:category/:id", GetOneHandler(srv))
		apiGroup.PUT("/datasets/:army/:category/:id", UpdateHandler(srv))
		apiGroup.DELETE("/datasets/:army/:category/:id", DeleteHandler(srv))

		ed := apiGroup.Group("/editor")
		ed.POST("/:army/:category", OpenSessionHandler(srv))
		ed.GET("/sessions/:session", GetSessionHandler(srv))
		ed.DELETE("/sessions/:session", CloseSessionHandler(srv))
		ed.POST("/sessions/:session/target", SessionTargetHandler(srv))
		ed.POST("/sessions/:session/field", SessionFieldHandler(srv))
		ed.POST("/sessions/:session/blur", SessionBlurHandler(srv))
		ed.POST("/sessions/:session/entries/:collection", SessionAppendHandler(srv))
		ed.POST("/sessions/:session/entries/:collection/:index/field", SessionEntryFieldHandler(srv))
		ed.POST("/sessions/:session/entries/:collection/:index/blur", SessionEntryBlurHandler(srv))
		ed.POST("/sessions/:session/magic/toggle", SessionMagicToggleHandler(srv))
		ed.POST("/sessions/:session/magic/points", SessionMagicPointsHandler(srv))
		ed.POST("/sessions/:session/submit", SessionSubmitHandler(srv))
		ed.POST("/sessions/:session/delete", SessionDeleteHandler(srv))

		apiGroup.POST("/lists", CreateListHandler(srv))
		apiGroup.GET("/lists/:id", GetListHandler(srv))
		apiGroup.PUT("/lists/:id", UpdateListHandler(srv))
		apiGroup.DELETE("/lists/:id", DeleteListHandler(srv))
		apiGroup.GET("/lists/:id/points", ListPointsHandler(srv))

		apiGroup.POST("/admin/reload", AdminReloadHandler(srv))
	}
	return r
}

// RunServer serves until ctx is cancelled, then shuts down gracefully.
// Idle editor sessions are swept in the background meanwhile.
func RunServer(ctx context.Context, addr string, srv *Server) error {
	r := NewRouter(srv)
	hs := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if srv.Sessions.TTL > 0 {
		go srv.Sessions.Run(ctx, time.Minute, srv.Log)
	}

	errCh := make(chan error, 1)
	go func() {
		srv.Log.Info("listening", zap.String("addr", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	srv.Log.Info("shutting down")
	return hs.Shutdown(shutdownCtx)
}
