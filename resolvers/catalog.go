package resolvers

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/truefans/server/models"
)

func catalogFilter(req *http.Request) models.CatalogFilter {
	q := req.URL.Query()
	return models.CatalogFilter{Query: q.Get("q"), Genre: q.Get("genre")}
}

func (r *Resolver) listMusicians(w http.ResponseWriter, req *http.Request) {
	musicians, err := r.catalog.ListMusicians(req.Context(), catalogFilter(req))
	if err != nil {
		writeError(w, req, err)
		return
	}
	if musicians == nil {
		musicians = []models.Musician{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": musicians})
}

func (r *Resolver) getMusician(w http.ResponseWriter, req *http.Request) {
	musician, err := r.catalog.GetMusician(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, musician)
}

func (r *Resolver) musicianSongs(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	musician, err := r.catalog.GetMusician(ctx, chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, req, err)
		return
	}
	songs, err := r.catalog.SongsByMusician(ctx, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": songs})
}

func (r *Resolver) listSongs(w http.ResponseWriter, req *http.Request) {
	songs, err := r.catalog.ListSongs(req.Context(), catalogFilter(req))
	if err != nil {
		writeError(w, req, err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": songs})
}
