// Package httpapi serves the JSON API over net/http.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"deediq/internal/account"
	"deediq/internal/apperror"
	"deediq/internal/auth"
	"deediq/internal/chat"
	"deediq/internal/forum"
	"deediq/internal/market"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Assistant answers chat questions. *chat.Assistant implements it.
type Assistant interface {
	Ask(ctx context.Context, message string, pageCtx *chat.Context) (string, error)
}

type Deps struct {
	Markets   *market.Repository
	Forum     *forum.Service
	Accounts  *account.Service
	Assistant Assistant
	Tokens    *auth.Issuer
}

type Server struct {
	markets   *market.Repository
	forum     *forum.Service
	accounts  *account.Service
	assistant Assistant
	tokens    *auth.Issuer
}

func New(d Deps) *Server {
	return &Server{
		markets:   d.Markets,
		forum:     d.Forum,
		accounts:  d.Accounts,
		assistant: d.Assistant,
		tokens:    d.Tokens,
	}
}

// Handler returns the routed API with caller resolution, CORS and request
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /api/markets", s.listMarkets)
	mux.HandleFunc("GET /api/markets/{city}", s.getMarket)
	mux.HandleFunc("GET /api/markets/{city}/submarkets", s.getSubmarkets)
	mux.HandleFunc("POST /api/calculator", s.calculate)

	mux.HandleFunc("POST /api/auth/signup", s.signup)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/me", s.me)
	mux.HandleFunc("PUT /api/auth/profile", s.updateProfile)
	mux.HandleFunc("PUT /api/auth/password", s.changePassword)
	mux.HandleFunc("GET /api/auth/user/{id}", s.publicProfile)

	mux.HandleFunc("GET /api/forum/categories", s.listCategories)
	mux.HandleFunc("GET /api/forum/categories/{id}/threads", s.listThreads)
	mux.HandleFunc("GET /api/forum/threads/{id}", s.getThread)
	mux.HandleFunc("POST /api/forum/threads", s.createThread)
	mux.HandleFunc("POST /api/forum/posts", s.createPost)
	mux.HandleFunc("PUT /api/forum/posts/{id}", s.editPost)
	mux.HandleFunc("DELETE /api/forum/posts/{id}", s.deletePost)
	mux.HandleFunc("POST /api/forum/posts/{id}/like", s.likePost)
	mux.HandleFunc("DELETE /api/forum/posts/{id}/like", s.unlikePost)
	mux.HandleFunc("GET /api/forum/users/{id}/threads", s.userThreads)
	mux.HandleFunc("GET /api/forum/users/{id}/posts", s.userPosts)
	mux.HandleFunc("GET /api/forum/users/{id}/likes", s.userLikedPosts)

	mux.HandleFunc("POST /api/properties", s.saveProperty)
	mux.HandleFunc("GET /api/properties", s.listProperties)
	mux.HandleFunc("DELETE /api/properties/{id}", s.deleteProperty)

	mux.HandleFunc("POST /api/chat", s.chat)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	return logRequests(withCORS(s.withCaller(mux)))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "deediq",
	})
}

// withCaller resolves a bearer token into the request's caller. Requests
// without a token run as anonymous; a bad token is rejected outright.
func (s *Server) withCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		caller, err := s.tokens.Caller(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// ok writes {"success": true} merged with fields.
func ok(w http.ResponseWriter, fields map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

// fail maps err's kind onto an HTTP status. Internal failures are logged with
// op and reported with a generic message.
func fail(w http.ResponseWriter, op string, err error) {
	var status int
	switch apperror.KindOf(err) {
	case apperror.Validation:
		status = http.StatusBadRequest
	case apperror.NotFound:
		status = http.StatusNotFound
	case apperror.Forbidden:
		status = http.StatusForbidden
	case apperror.Conflict:
		status = http.StatusConflict
	case apperror.Auth:
		status = http.StatusUnauthorized
	case apperror.Unavailable:
		status = http.StatusServiceUnavailable
	default:
		log.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Failed to "+op)
		return
	}
	writeError(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

// requireCaller writes a 401 and returns false for anonymous requests.
func requireCaller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller := auth.CallerFromContext(r.Context())
	if err := caller.Require(); err != nil {
		fail(w, "authenticate", err)
		return caller, false
	}
	return caller, true
}
