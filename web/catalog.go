package web

import (
	"net/http"
)

func (s *Server) handleGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"count": s.catalog.Len(),
		"games": s.catalog.Games(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	games := s.catalog.Search(q)
	writeJSON(w, http.StatusOK, map[string]any{
		"query": q,
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleConsoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"consoles": s.catalog.Consoles(),
	})
}

func (s *Server) handleByConsole(w http.ResponseWriter, r *http.Request) {
	console := decodeSegment(r.PathValue("console"))
	games := s.catalog.ByConsole(console)
	if len(games) == 0 {
		writeError(w, http.StatusNotFound, "console not found: "+console)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"console": console,
		"count":   len(games),
		"games":   games,
	})
}

func (s *Server) handleByManufacturer(w http.ResponseWriter, r *http.Request) {
	name := decodeSegment(r.PathValue("manufacturer"))
	games := s.catalog.ByManufacturer(name)
	if len(games) == 0 {
		writeError(w, http.StatusNotFound, "manufacturer not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"manufacturer": name,
		"count":        len(games),
		"games":        games,
	})
}

func (s *Server) handleManufacturers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"manufacturers": s.catalog.Manufacturers(),
	})
}

func (s *Server) handleManufacturer(w http.ResponseWriter, r *http.Request) {
	name := decodeSegment(r.PathValue("name"))
	mfr, games, ok := s.catalog.ManufacturerDetail(name)
	if !ok {
		writeError(w, http.StatusNotFound, "manufacturer not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"manufacturer": mfr,
		"games":        games,
	})
}

func (s *Server) handleManufacturerPlatform(w http.ResponseWriter, r *http.Request) {
	name := decodeSegment(r.PathValue("name"))
	platform := decodeSegment(r.PathValue("platform"))
	games := s.catalog.ManufacturerPlatform(name, platform)
	if len(games) == 0 {
		writeError(w, http.StatusNotFound, "no games for "+name+" on "+platform)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"manufacturer": name,
		"platform":     platform,
		"count":        len(games),
		"games":        games,
	})
}
