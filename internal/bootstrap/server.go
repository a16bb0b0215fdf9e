package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/domain"
)

const (
	_healthTimeout   = 3 * time.Second
	_shutdownTimeout = 10 * time.Second
)

// HealthChecker - то, что проверяет /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// JobLister - состояния задач планировщика для /health
type JobLister interface {
	Jobs() map[string]string
}

// InitOpsServer - /health и /metrics; nil, если порт не задан
func InitOpsServer(cfg *config.Config, health HealthChecker, jobs JobLister) *http.Server {
	if cfg.HTTP.Port == "" {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler(health, jobs))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(health HealthChecker, jobs JobLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), _healthTimeout)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"jobs":   jobs.Jobs(),
		})
	}
}

// RunOpsServer - слушать до отмены ctx, затем graceful shutdown. ready закрывается, когда порт занят.
func RunOpsServer(ctx context.Context, server *http.Server, ready func(), log domain.Logger) error {
	if server == nil {
		ready()
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Ops server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ListenAndServe не сообщает о готовности; ошибка бинда приходит почти сразу
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
	case <-time.After(100 * time.Millisecond):
	}
	ready()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancel()

	log.Info("Shutting down ops server")
	return server.Shutdown(shutdownCtx)
}
