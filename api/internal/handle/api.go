package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"linearsolve/api/internal/render"
	"linearsolve/api/internal/store"
	"linearsolve/api/internal/util"
	"linearsolve/api/internal/workspace"
)

type SolveRequest struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"` // data URI или голый base64
}

type SolveResponse struct {
	Solution string `json:"solution"`
	HTML     string `json:"html"`
	Failed   bool   `json:"failed,omitempty"`
}

// SolveJSON: то же решение без сессии: отдельный workspace на запрос.
func (h *Handle) SolveJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req SolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Image) != "" {
		data, mime, err := util.DecodeBase64MaybeDataURL(req.Image)
		if err != nil || len(data) == 0 {
			http.Error(w, "bad image: expected base64 or data URI", http.StatusBadRequest)
			return
		}
		// голый base64 приводим к data URI, как при загрузке через форму
		req.Image = util.EncodeDataURL(mime, data)
	}

	ws := workspace.New()
	ws.SetText(req.Text)
	ws.SetImage(req.Image)
	p := ws.View().Problem()

	v, err := ws.Solve(r.Context(), h.api)
	switch {
	case errors.Is(err, workspace.ErrEmptyInput):
		http.Error(w, "text or image is required", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "solve error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), "", "api", p, v)

	resp := SolveResponse{
		Solution: v.Solution,
		HTML:     string(render.Render(v.Solution)),
		Failed:   v.Failed,
	}
	code := http.StatusOK
	if v.Failed {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, resp)
}

type RenderRequest struct {
	Markdown string `json:"markdown"`
}

type RenderResponse struct {
	HTML string `json:"html"`
}

func (h *Handle) RenderJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req RenderRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{HTML: string(render.Render(req.Markdown))})
}

// History отдаёт только решения сессии из cookie; без cookie список пуст.
func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	if h.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		writeJSON(w, http.StatusOK, []store.SolveRow{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.history.Recent(r.Context(), c.Value, limit)
	if err != nil {
		http.Error(w, "history error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
