package demoapi

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// invalidMessage is the top-level message of validation failures.
const invalidMessage = "The given data was invalid."

// API serves the users resource.
type API struct {
	store  *Store
	logger *slog.Logger
}

// Option configures the API.
type Option func(*API)

// WithStore sets the backing store (default: a new empty store).
func WithStore(s *Store) Option {
	return func(a *API) {
		if s != nil {
			a.store = s
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns the API as an http.Handler.
func New(opts ...Option) http.Handler {
	a := &API{
		store:  NewStore(),
		logger: slog.Default().With("component", "demoapi"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a.routes()
}

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", a.listUsers)
		r.Post("/", a.createUser)
		r.Options("/", a.allow("GET, POST, OPTIONS"))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getUser)
			r.Put("/", a.replaceUser)
			r.Patch("/", a.updateUser)
			r.Delete("/", a.deleteUser)
			r.Options("/", a.allow("GET, PUT, PATCH, DELETE, OPTIONS"))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found."})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method not allowed."})
	})

	return r
}

// logRequests logs one line per request with slog.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (a *API) allow(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": a.store.List(r.URL.Query().Get("q"))})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	input, ok := readInput(w, r)
	if !ok {
		return
	}
	u, errs := decodeUser(input, User{}, false)
	if len(errs) > 0 {
		writeInvalid(w, errs)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": a.store.Create(u)})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := a.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (a *API) replaceUser(w http.ResponseWriter, r *http.Request) {
	a.writeUser(w, r, false)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	a.writeUser(w, r, true)
}

func (a *API) writeUser(w http.ResponseWriter, r *http.Request, partial bool) {
	existing, ok := a.lookup(w, r)
	if !ok {
		return
	}
	input, ok := readInput(w, r)
	if !ok {
		return
	}
	base := User{ID: existing.ID}
	if partial {
		base = existing
	}
	u, errs := decodeUser(input, base, partial)
	if len(errs) > 0 {
		writeInvalid(w, errs)
		return
	}
	if !a.store.Put(u) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	u, ok := a.lookup(w, r)
	if !ok {
		return
	}
	a.store.Delete(u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) (User, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found."})
		return User{}, false
	}
	u, ok := a.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found."})
		return User{}, false
	}
	return u, true
}

// readInput decodes a JSON object body. It answers 400 on malformed input.
func readInput(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{"message": "Expected a JSON body."})
		return nil, false
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Request body could not be read."})
		return nil, false
	}
	input := map[string]any{}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed JSON body."})
			return nil, false
		}
	}
	return input, true
}

func writeInvalid(w http.ResponseWriter, errs validationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": invalidMessage,
		"errors":  errs,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		http.Error(w, `{"message":"Internal server error."}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
