package handle

import (
	"errors"
	"net/http"
	"strconv"

	"linearsolve/api/internal/export"
)

// ExportPDF отдаёт панель решения в PDF. Нет решения: 204 без тела.
func (h *Handle) ExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	if h.exporter == nil {
		http.Error(w, "export is disabled", http.StatusNotFound)
		return
	}

	var solution string
	if c, err := r.Cookie(sessionCookie); err == nil {
		if ws, ok := h.sessions.Lookup(c.Value); ok {
			solution = ws.View().Solution
		}
	}

	pdf, err := h.exporter.Export(r.Context(), solution)
	if errors.Is(err, export.ErrNoTarget) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		http.Error(w, "export error: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
