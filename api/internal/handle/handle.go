package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"linearsolve/api/internal/export"
	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/store"
	"linearsolve/api/internal/workspace"
)

const (
	sessionCookie = "ls_session"
	maxImageBytes = 10 << 20
	maxJSONBytes  = 16 << 20
)

// History is the optional solve log.
type History interface {
	Record(ctx context.Context, row store.SolveRow)
	Recent(ctx context.Context, session string, limit int) ([]store.SolveRow, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Sessions *workspace.Store
	// Web solves page submissions, API solves /v1/solve; usually the same engine
	// instrumented with different sources.
	Web solver.Solver
	API solver.Solver
	// Exporter is nil when PDF export is disabled.
	Exporter *export.Exporter
	History  History
	DB       Pinger
	Model    string
}

type Handle struct {
	sessions *workspace.Store
	web      solver.Solver
	api      solver.Solver
	exporter *export.Exporter
	history  History
	db       Pinger
	model    string
}

func New(opts Options) *Handle {
	h := &Handle{
		sessions: opts.Sessions,
		web:      opts.Web,
		api:      opts.API,
		exporter: opts.Exporter,
		history:  opts.History,
		db:       opts.DB,
		model:    opts.Model,
	}
	if h.sessions == nil {
		h.sessions = workspace.NewStore()
	}
	if h.api == nil {
		h.api = h.web
	}
	return h
}

func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)

	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/solve", h.Solve)
	mux.HandleFunc("/image/remove", h.RemoveImage)
	mux.HandleFunc("/clear", h.Clear)
	mux.HandleFunc("/export.pdf", h.ExportPDF)

	mux.HandleFunc("/v1/solve", h.SolveJSON)
	mux.HandleFunc("/v1/render", h.RenderJSON)
	mux.HandleFunc("/v1/history", h.History)
}

// session возвращает ключ сессии из cookie, при отсутствии: выдаёт новый.
func (h *Handle) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handle) record(ctx context.Context, session, source string, p solver.Problem, v workspace.View) {
	if h.history == nil {
		return
	}
	h.history.Record(ctx, store.NewSolveRow(session, source, h.model, p, v))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
