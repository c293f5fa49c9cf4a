package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/logger"
)

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Provider string `json:"provider"`
	Text     string `json:"text"`
}

// Completion proxies an arbitrary prompt to the configured LLM provider.
// Unlike the rating path there is no heuristic to fall back to, so provider
// failures surface to the caller.
func (h *Handler) Completion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "unparseable request body"})
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "missing required parameter: prompt"})
		return
	}

	text, err := h.provider.Invoke(ctx, req.Prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, errorBody{Error: "llm provider not configured"})
			return
		}
		logger.ErrorWithErr(ctx, "completion failed", err, "provider", h.provider.Name())
		writeUpstreamError(w, err, "")
		return
	}

	writeJSON(w, completionResponse{Provider: h.provider.Name(), Text: text}, false)
}
