package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/wrightlabs/pagewright/pkg/abilities"
)

// Header carrying the caller's granted capabilities, comma separated. In a
// full deployment this is set by the authenticating proxy; the server itself
// only maps it onto a Principal.
const (
	HeaderPrincipal    = "X-Principal"
	HeaderCapabilities = "X-Capabilities"
)

// Server exposes the ability registry over HTTP.
type Server struct {
	registry abilities.Registry
	executor abilities.Executor
}

type ServerOption func(*Server)

func WithExecutor(executor abilities.Executor) ServerOption {
	return func(s *Server) { s.executor = executor }
}

func NewServer(registry abilities.Registry, opts ...ServerOption) *Server {
	s := &Server{registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = abilities.NewExecutor()
	}
	return s
}

// Handler builds the chi router. Ability names are namespaced with a slash,
// so runs are addressed as /api/abilities/{namespace}/{ability}/run.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(principalMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/abilities", s.handleList)
	r.Post("/api/abilities/{namespace}/{ability}/run", s.handleRun)
	return r
}

// principalMiddleware lifts the identity headers into an abilities.Principal
// on the request context.
func principalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := abilities.Principal{ID: r.Header.Get(HeaderPrincipal)}
		if caps := r.Header.Get(HeaderCapabilities); caps != "" {
			for _, c := range strings.Split(caps, ",") {
				if c = strings.TrimSpace(c); c != "" {
					p.Capabilities = append(p.Capabilities, c)
				}
			}
		}
		ctx := abilities.WithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// runRequest is the body of a run call. Keeping the ability input under its
// own key leaves room for per-call options alongside it later.
type runRequest struct {
	Input json.RawMessage `json:"input"`
}

type abilityInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capability  string `json:"capability,omitempty"`
	InputSchema any    `json:"input_schema,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	defs := s.registry.List()
	infos := make([]abilityInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, abilityInfo{
			Name:        def.Name,
			Description: def.Description,
			Capability:  def.Capability,
			InputSchema: def.InputSchema,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"abilities": infos})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "namespace") + "/" + chi.URLParam(r, "ability")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, abilities.NewResponse(nil,
			abilities.NewValidationError(name, "", "unreadable request body")))
		return
	}
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	var runReq runRequest
	if err := json.Unmarshal(body, &runReq); err != nil {
		writeJSON(w, http.StatusBadRequest, abilities.NewResponse(nil,
			abilities.NewValidationError(name, "", "request body is not valid json")))
		return
	}
	if len(runReq.Input) == 0 || string(runReq.Input) == "null" {
		runReq.Input = json.RawMessage(`{}`)
	}

	call := abilities.Call{
		ID:    middleware.GetReqID(r.Context()),
		Name:  name,
		Input: runReq.Input,
	}
	result, abErr := s.executor.Execute(r.Context(), call, s.registry)
	if abErr != nil {
		log.Debug().Str("ability", name).Str("type", string(abErr.Type)).Msg("httpapi: ability run failed")
		writeJSON(w, statusFor(abErr), abilities.NewResponse(nil, abErr))
		return
	}
	writeJSON(w, http.StatusOK, abilities.NewResponse(result, nil))
}

func statusFor(abErr *abilities.AbilityError) int {
	switch abErr.Type {
	case abilities.ErrorTypeNotFound:
		return http.StatusNotFound
	case abilities.ErrorTypePermission:
		return http.StatusForbidden
	case abilities.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("httpapi: response encode failed")
	}
}
