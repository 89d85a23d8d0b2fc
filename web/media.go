package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/media"
	"github.com/hiddengem/hiddengem/tracing"
)

// decodeSegment reverses the URL convention for catalog names: underscores
// stand in for spaces.
func decodeSegment(seg string) string {
	return strings.ReplaceAll(seg, "_", " ")
}

// mediaURL maps a stored asset to its static-serving path.
func mediaURL(key media.GameKey, filename string) string {
	return "/media/" + path.Join(key.Dir(), filename)
}

// gameKey resolves a title path segment against the catalog. The console
// query parameter narrows the lookup when one title ships on several
// platforms.
func (s *Server) gameKey(r *http.Request) (media.GameKey, bool) {
	title := decodeSegment(r.PathValue("title"))
	console := r.URL.Query().Get("console")
	game, ok := s.catalog.Find(title, console)
	if !ok {
		return media.GameKey{}, false
	}
	return media.NewGameKey(game.Title, game.Console), true
}

func (s *Server) handleGameAction(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "details":
		s.handleDetails(w, r)
	case "thumbnail":
		s.handleThumbnail(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "web.details")
	defer span.End()

	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	tracing.AddSpanAttributes(span,
		attribute.String("game.title", key.Title),
		attribute.String("game.console", key.Console),
	)

	policy := s.policy
	if raw := r.URL.Query().Get("max_images"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "max_images must be a positive integer")
			return
		}
		if n <= policy.Covers {
			// A budget of one image is the cover alone; WithScreenshots
			// would round it back up to a screenshot.
			policy = media.Policy{Covers: policy.Covers}
		} else {
			policy = policy.WithScreenshots(n - policy.Covers)
		}
	}
	force := r.URL.Query().Get("refresh") == "true"

	record, err := s.engine.Resolve(ctx, key, policy, force)
	if err != nil {
		tracing.RecordError(span, err)
		logging.Error("media resolution failed", "game", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "media resolution failed")
		return
	}
	tracing.SetSpanOK(span)

	urls := make([]string, 0, len(record.Images))
	for _, img := range record.Images {
		urls = append(urls, mediaURL(key, img.Filename))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":       record.Title,
		"console":     record.Console,
		"description": record.Description,
		"tags":        record.Tags,
		"images":      urls,
		"image_count": record.ImageCount(),
	})
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	record, err := s.engine.Resolve(r.Context(), key, media.Policy{Covers: 1, Screenshots: 1}, false)
	if err != nil {
		logging.Error("thumbnail resolution failed", "game", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "media resolution failed")
		return
	}

	var url any
	if cover, ok := record.Cover(); ok {
		url = mediaURL(key, cover.Filename)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":     record.Title,
		"thumbnail": url,
	})
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Description) == "" {
		writeError(w, http.StatusBadRequest, "a non-empty description is required")
		return
	}
	if err := s.store.SetDescription(key, body.Description, true); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store description")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteDescription(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err := s.store.DeleteDescription(key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete description")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSetTags(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetTags(key, body.Tags); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store tags")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteTags(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err := s.store.DeleteTags(key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete tags")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSetOrder(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var body struct {
		Order []string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Order) == 0 {
		writeError(w, http.StatusBadRequest, "a non-empty order list is required")
		return
	}
	if err := s.store.SetOrder(key, body.Order); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store order")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

const maxUploadBytes = 20 << 20

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'image' file field")
		return
	}
	defer file.Close()

	filename := path.Base(header.Filename)
	if !media.IsImageFile(filename) {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	asset, err := s.store.SaveAsset(key, filename, data, "admin")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusCreated, map[string]any{
		"filename": asset.Filename,
		"category": asset.Category,
		"url":      mediaURL(key, asset.Filename),
	})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	key, ok := s.gameKey(r)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	filename := path.Base(r.PathValue("filename"))
	err := s.store.DeleteAsset(key, filename)
	if errors.Is(err, media.ErrAssetNotFound) {
		writeError(w, http.StatusNotFound, "image not found: "+filename)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	s.invalidate(key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// invalidate tells the engine that this key's directory changed, when the
// engine supports it.
func (s *Server) invalidate(key media.GameKey) {
	if inv, ok := s.engine.(interface{ Invalidate(media.GameKey) }); ok {
		inv.Invalidate(key)
	}
}
