package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stock-insight-api/internal/api"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/trace"
)

// wrap applies the shared per-request plumbing: CORS headers on every
// response, the OPTIONS preflight short-circuit, and a request span.
func (h *Handler) wrap(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ctx, span := trace.StartSpan(r.Context(), r.URL.Path)
		defer span.End()

		fn(w, r.WithContext(ctx))
	})
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeJSON sends a 200 with the payload. cached switches the Cache-Control
// header: cache-derived answers may be shared, fresh ones must not be.
func writeJSON(w http.ResponseWriter, payload any, cached bool) {
	if cached {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeRaw sends pre-encoded upstream JSON untouched.
func writeRaw(w http.ResponseWriter, body []byte, cached bool) {
	if cached {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	NoData  bool   `json:"noData,omitempty"`
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeUpstreamError mirrors the upstream status code when one is known,
// otherwise answers 500; exhausted data chains answer 404 with the symbol
// echoed.
func writeUpstreamError(w http.ResponseWriter, err error, symbol string) {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		writeError(w, statusErr.StatusCode, errorBody{
			Error:   "upstream request failed",
			Details: err.Error(),
			Symbol:  symbol,
		})
		return
	}
	if errors.Is(err, marketdata.ErrNoData) {
		writeError(w, http.StatusNotFound, errorBody{
			Error:  "no data available",
			Symbol: symbol,
			NoData: true,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, errorBody{
		Error:   "upstream request failed",
		Details: err.Error(),
		Symbol:  symbol,
	})
}
