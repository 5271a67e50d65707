package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/core/jukebox"
	"EternalJukebox/logger"

	"github.com/gorilla/mux"
)

// watchDebounce collapses bursts of cache writes into one reclaim pass.
const watchDebounce = 2 * time.Second

// Start builds the service from cfg and serves HTTP until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	svc, closeAlerts, err := jukebox.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer closeAlerts()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StorageWatch {
		go func() {
			if err := svc.WatchStorage(ctx, watchDebounce); err != nil {
				logger.Error("[Server] 缓存目录监听失败", logger.ErrorField(err))
			}
		}()
	}
	// 启动时先清理一次
	svc.ReclaimStorage(ctx)

	return Serve(ctx, ":"+cfg.Port, NewRouter(NewAPIHandler(svc, cfg.LogMissingPaths)))
}

// Serve runs handler on addr and shuts down gracefully once ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// 按曲目下载最长可达数分钟
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] 服务启动", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("[Server] 正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[Server] 服务已停止")
	return nil
}

// NewRouter registers the API routes on a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(accessLog)

	router.HandleFunc("/api/analysis/{id}", h.AnalysisHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/song", h.SongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio", h.AudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/robots.txt", robotsHandler).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(h.UnknownPathHandler)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("[Server] 请求完成",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", time.Since(start)))
	})
}
