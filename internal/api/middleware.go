package api

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/api/handlers"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

// statusWriter captures the final HTTP status code and number of bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware reuses the caller's request id or assigns a fresh one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(obs.WithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs end-to-end request duration and response size.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		obs.Logger(r.Context()).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.RequestURI(),
			"status": sw.status,
			"bytes":  sw.bytes,
			"dur_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	})
}

// timeoutMiddleware cancels the request context after d, which also bounds
// waits for a pooled database connection.
func timeoutMiddleware(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// travelerClaims is the token payload: the subject is the traveler id.
type travelerClaims struct {
	Personalities []string `json:"personalities"`
	jwt.RegisteredClaims
}

// IssueToken signs a traveler token valid for ttl.
func IssueToken(secret []byte, t domain.Traveler, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := travelerClaims{
		Personalities: t.Personalities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

var errMissingSubject = errors.New("token has no subject")

func parseTraveler(secret []byte, header string) (domain.Traveler, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return domain.Traveler{}, errors.New("missing bearer token")
	}

	claims := &travelerClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Traveler{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return domain.Traveler{}, errMissingSubject
	}

	return domain.Traveler{ID: claims.Subject, Personalities: claims.Personalities}, nil
}

// authenticate resolves the traveler from an HS256 bearer token.
func authenticate(secret []byte, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		t, err := parseTraveler(secret, r.Header.Get("Authorization"))
		if err != nil {
			obs.Logger(r.Context()).WithError(err).Debug("rejected token")
			writeStatus(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(handlers.WithTraveler(r.Context(), t)), ps)
	}
}

// sweep applies the date-driven plan transitions before the handler runs, so
// every read sees statuses that match today's date.
func sweep(lc *services.Lifecycle, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		res, err := lc.Sweep(r.Context())
		if err != nil {
			handlers.WriteServiceError(w, r, err)
			return
		}
		if res.Activated > 0 || res.Skipped > 0 {
			obs.Logger(r.Context()).WithFields(log.Fields{
				"activated": res.Activated,
				"skipped":   res.Skipped,
			}).Info("plan statuses advanced")
		}
		next(w, r, ps)
	}
}
