package server

import (
	"context"
	"errors"
	"net/http"

	"MusicFlow/cache"
	"MusicFlow/core/scan"
	"MusicFlow/logger"
)

// TriggerScanHandler 启动一次后台全量扫描
func (h *APIHandler) TriggerScanHandler(w http.ResponseWriter, r *http.Request) {
	go func() {
		summary, err := h.orch.FullScan(context.Background())
		if err != nil {
			if !errors.Is(err, scan.ErrScanInProgress) {
				logger.Error("Background scan failed", logger.ErrorField(err))
			}
			return
		}
		logger.Info("Background scan done",
			logger.Int("completed", summary.Completed), logger.Int("failed", summary.Failed))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan started"})
}

// TriggerRepairHandler 启动一次后台修复扫描
func (h *APIHandler) TriggerRepairHandler(w http.ResponseWriter, r *http.Request) {
	go func() {
		summary, err := h.orch.Repair(context.Background())
		if err != nil {
			if !errors.Is(err, scan.ErrScanInProgress) {
				logger.Error("Background repair failed", logger.ErrorField(err))
			}
			return
		}
		logger.Info("Background repair done",
			logger.Int("completed", summary.Completed), logger.Int("failed", summary.Failed))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "repair started"})
}

// ScanProgressHandler 返回Redis中的最近一次扫描进度
func (h *APIHandler) ScanProgressHandler(w http.ResponseWriter, r *http.Request) {
	progress, err := cache.GetScanProgress(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read scan progress")
		return
	}
	if progress == nil {
		writeError(w, http.StatusNotFound, "no scan has run yet")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
