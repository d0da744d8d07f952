package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"projector-server/internal/auth"
	"projector-server/internal/models"
	"projector-server/internal/services"
)

type actorKey struct{}

// ActorParser turns a bearer token into an actor
type ActorParser interface {
	Parse(token string) (models.Actor, error)
}

// ActorMiddleware resolves the request's actor. Requests without a token
// act as the anonymous viewer; invalid tokens are rejected.
func ActorMiddleware(parser ActorParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := models.Anonymous
			if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" {
				parsed, err := parser.Parse(token)
				if err != nil {
					log.Printf("Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				actor = parsed
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		})
	}
}

// ActorFrom returns the actor stored by ActorMiddleware
func ActorFrom(ctx context.Context) models.Actor {
	if actor, ok := ctx.Value(actorKey{}).(models.Actor); ok {
		return actor
	}
	return models.Anonymous
}

// LogMiddleware logs every request with its status and duration
func LogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf(
			"level=info msg=\"http request\" method=%s path=%s status=%d duration=%s",
			r.Method,
			r.URL.Path,
			sw.status,
			time.Since(start),
		)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeServiceError maps service errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidSlide), errors.Is(err, services.ErrInvalidSize):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrProjectorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("Request failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
