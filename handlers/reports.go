package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/service"
)

// ReportStorage uploads reports and hands out download links.
type ReportStorage interface {
	Put(ctx context.Context, r *service.Report) (string, error)
	URL(ctx context.Context, key string, generatedAt time.Time) (string, error)
}

type ReportsHandler struct {
	Desk    *service.Desk
	Reports ReportStorage
	Logger  *zap.Logger
}

type ReportResponse struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Create builds a circulation report, uploads it and returns a download link.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Reports == nil {
		http.Error(w, `{"error":"reports not configured"}`, http.StatusServiceUnavailable)
		return
	}
	report, err := h.Desk.Report(r.Context(), viewer(r))
	if err != nil {
		h.Logger.Error("build report", zap.Error(err))
		http.Error(w, `{"error":"failed to build report"}`, http.StatusInternalServerError)
		return
	}
	key, err := h.Reports.Put(r.Context(), report)
	if err != nil {
		h.Logger.Error("upload report", zap.Error(err))
		http.Error(w, `{"error":"failed to upload report"}`, http.StatusInternalServerError)
		return
	}
	url, err := h.Reports.URL(r.Context(), key, report.GeneratedAt)
	if err != nil {
		h.Logger.Error("presign report", zap.String("key", key), zap.Error(err))
		http.Error(w, `{"error":"failed to create download link"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ReportResponse{Key: key, URL: url, GeneratedAt: report.GeneratedAt})
}
