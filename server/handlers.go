package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"EternalJukebox/core/alert"
	"EternalJukebox/core/jukebox"
	"EternalJukebox/logger"
	"EternalJukebox/model"

	"github.com/gorilla/mux"
)

// Resolver is what the handlers need from the jukebox service.
type Resolver interface {
	ResolveAnalysis(ctx context.Context, trackID string) (*model.EternalAudio, error)
	ResolveAudioByTrackID(ctx context.Context, trackID string) (string, error)
	ResolveAudioBySource(ctx context.Context, source, fallbackTrackID string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]model.EternalInfo, error)
	Alert(ctx context.Context, title, body string)
}

// APIHandler 处理所有API请求
type APIHandler struct {
	svc             Resolver
	logMissingPaths bool
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(svc Resolver, logMissingPaths bool) *APIHandler {
	return &APIHandler{svc: svc, logMissingPaths: logMissingPaths}
}

// AnalysisHandler GET /api/analysis/{id}
func (h *APIHandler) AnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	audio, err := h.svc.ResolveAnalysis(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, audio)
}

// SongHandler GET /api/song?id=
func (h *APIHandler) SongHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing 'id' parameter", http.StatusBadRequest)
		return
	}
	path, err := h.svc.ResolveAudioByTrackID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	serveAudio(w, r, path)
}

// AudioHandler GET /api/audio?url=&fallback=
func (h *APIHandler) AudioHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, fallback := q.Get("url"), q.Get("fallback")
	if source == "" && fallback == "" {
		http.Error(w, "Missing 'url' parameter", http.StatusBadRequest)
		return
	}
	path, err := h.svc.ResolveAudioBySource(r.Context(), source, fallback)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	serveAudio(w, r, path)
}

// SearchHandler GET /api/search?q=&results=
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		http.Error(w, "Missing 'q' parameter", http.StatusBadRequest)
		return
	}
	limit := jukebox.DefaultSearchLimit
	if v := q.Get("results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid 'results' parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	infos, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, infos)
}

// UnknownPathHandler answers 404 and optionally raises an alert.
func (h *APIHandler) UnknownPathHandler(w http.ResponseWriter, r *http.Request) {
	if h.logMissingPaths {
		logger.Info("[Server] 未知路径", logger.String("remote", r.RemoteAddr), logger.String("path", r.URL.Path))
		h.svc.Alert(r.Context(), alert.TitleUnknownPath,
			fmt.Sprintf("%s requested %s, returning with 404", r.RemoteAddr, r.URL.Path))
	}
	http.NotFound(w, r)
}

func robotsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "User-agent: *\nDisallow: /api/\n")
}

// statusFor maps resolution errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, jukebox.ErrNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, jukebox.ErrNotFound), errors.Is(err, jukebox.ErrTransientFailure):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// 客户端已断开
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		logger.Error("[Server] 请求处理失败", logger.String("path", r.URL.Path), logger.ErrorField(err))
	} else {
		logger.Debug("[Server] 请求未命中", logger.String("path", r.URL.Path), logger.ErrorField(err))
	}
	http.Error(w, http.StatusText(status), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[Server] 写入响应失败", logger.ErrorField(err))
	}
}

func serveAudio(w http.ResponseWriter, r *http.Request, path string) {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	http.ServeFile(w, r, path)
}
