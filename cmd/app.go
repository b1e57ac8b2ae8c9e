package cmd

import (
	"context"
	"errors"
	"net/http"

	"storefront/api"
	"storefront/config"
	"storefront/infrastructure/outbox"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App 应用程序结构体
type App struct {
	config  *config.Config
	router  *api.Router
	server  *http.Server
	worker  *outbox.Worker
	closers []func(context.Context) error
}

// Run serves HTTP and, when present, the outbox worker until ctx is cancelled
// or one of them fails, then shuts both down.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			if err := a.worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	logger.Info("Server stopped")
	return err
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	closeAll(ctx, a.closers)
}

// GetServer 获取服务器实例（用于测试）
func (a *App) GetServer() *gin.Engine {
	return a.router.GetEngine()
}
