package handle

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"linearsolve/api/internal/util"
	"linearsolve/api/internal/web"
	"linearsolve/api/internal/workspace"
)

func (h *Handle) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	ws := h.sessions.Get(h.session(w, r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Index(w, ws.View()); err != nil {
		log.Printf("index: %v", err)
	}
}

// Solve принимает форму (text + необязательный файл image) и решает синхронно.
// Пустой ввод и повторная отправка во время решения: no-op.
func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	session := h.session(w, r)
	ws := h.sessions.Get(session)
	ws.SetText(r.FormValue("text"))

	file, hdr, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			http.Error(w, "read image: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(data) > maxImageBytes {
			http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
			return
		}
		if len(data) > 0 {
			ws.SetImage(util.EncodeDataURL(uploadMIME(hdr.Header.Get("Content-Type")), data))
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// картинку не прислали: оставляем загруженную ранее
	default:
		http.Error(w, "bad image: "+err.Error(), http.StatusBadRequest)
		return
	}

	p := ws.View().Problem()
	v, err := ws.Solve(r.Context(), h.web)
	switch {
	case err == nil:
		h.record(r.Context(), session, "web", p, v)
	case errors.Is(err, workspace.ErrEmptyInput), errors.Is(err, workspace.ErrBusy):
	default:
		log.Printf("solve: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handle) RemoveImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	h.sessions.Get(h.session(w, r)).RemoveImage()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handle) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	h.sessions.Get(h.session(w, r)).Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// uploadMIME отбрасывает неинформативный Content-Type части формы, чтобы угадать по байтам.
func uploadMIME(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" || ct == "application/octet-stream" {
		return ""
	}
	return ct
}
