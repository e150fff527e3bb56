// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/live-poll/classroom"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/middleware"
)

type HistoryHandler struct {
	history *classroom.History
}

func NewHistoryHandler(store db.Store) *HistoryHandler {
	return &HistoryHandler{history: classroom.NewHistory(store)}
}

// GetHistory handles GET /api/polls/history
// Returns every poll, newest first, with per-option counts and percentages
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.history.All(r.Context())
	if err != nil {
		slog.Error("failed to build poll history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch poll history")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, history)
}
