package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/store"
)

func (h *Handle) GetClass(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	p, err := h.profiles.Find(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "class not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("class lookup failed", "class_id", id, "err", err)
		http.Error(w, "class error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handle) PutClass(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	var p essay.ClassProfile
	if err := decode(w, r, &p); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if p.ID != "" && strings.TrimSpace(p.ID) != id {
		http.Error(w, "id in body does not match path", http.StatusBadRequest)
		return
	}
	p.ID = id
	if p.CEFRLevel != "" {
		lvl, ok := essay.ParseCEFR(string(p.CEFRLevel))
		if !ok {
			http.Error(w, "unknown cefr_level "+string(p.CEFRLevel), http.StatusBadRequest)
			return
		}
		p.CEFRLevel = lvl
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		http.Error(w, "temperature must be within 0..2", http.StatusBadRequest)
		return
	}
	if err := h.profiles.Upsert(r.Context(), p); err != nil {
		h.log.Error("class upsert failed", "class_id", id, "err", err)
		http.Error(w, "class error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
