package trackings_api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/TrackDesk/internal/services/trackings"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

type messageBody struct {
	Message string                 `json:"message"`
	Errors  []trackings.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// writeInternal hides the cause from the client; it only goes to the log.
func writeInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	slog.Error(msg,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	)
	writeMessage(w, http.StatusInternalServerError, msg)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var ve *trackings.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: "Invalid data", Errors: ve.Fields})
		return
	}
	writeInternal(w, r, err, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{
			Message: "Invalid data",
			Errors:  []trackings.FieldError{{Field: "body", Message: err.Error()}},
		})
		return false
	}
	return true
}

func (a *TrackingsAPI) throttleLookup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter == nil || a.lookupLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := a.limiter.WindowKey("lookup", clientIP(r), time.Minute)
		ok, _, err := a.limiter.Allow(r.Context(), key, a.lookupLimit, time.Minute)
		if err != nil {
			// Redis недоступен: публичный поиск не блокируем
			slog.Warn("lookup rate limit unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", "60")
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
