package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/thenexusengine/tne_adbridge/internal/storage"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// AdUnitWriter persists ad units
type AdUnitWriter interface {
	Create(ctx context.Context, u *storage.AdUnit) error
	Delete(ctx context.Context, gameID int, id int64) error
}

// AdUnitRequest is the request body for creating an ad unit
type AdUnitRequest struct {
	GameID        int    `json:"game_id"`
	DisplayFormat string `json:"display_format"`
	PlacementID   string `json:"placement_id"`
}

// AdUnitAdminHandler manages ad units. Writes invalidate the game's cached
// catalog so the next GET /ads/{gameID} reloads from storage.
//
//	POST   /admin/ad-units                         - Create an ad unit
//	DELETE /admin/games/{gameID}/ad-units/{id}     - Delete an ad unit
type AdUnitAdminHandler struct {
	store AdUnitWriter
	cache CatalogCache
}

// NewAdUnitAdminHandler creates a new admin handler; cache may be nil
func NewAdUnitAdminHandler(store AdUnitWriter, cache CatalogCache) *AdUnitAdminHandler {
	return &AdUnitAdminHandler{store: store, cache: cache}
}

// Create handles POST /admin/ad-units
func (h *AdUnitAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Ad unit management requires a database")
		return
	}

	var req AdUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body")
		return
	}

	unit := &storage.AdUnit{
		GameID:        req.GameID,
		DisplayFormat: req.DisplayFormat,
		PlacementID:   req.PlacementID,
	}
	if err := h.store.Create(r.Context(), unit); err != nil {
		if errors.Is(err, storage.ErrInvalidAdUnit) {
			sendError(w, http.StatusBadRequest, "invalid_ad_unit", err.Error())
			return
		}
		logger.HTTP().Error().Err(err).Int("game_id", req.GameID).Msg("Failed to create ad unit")
		sendError(w, http.StatusInternalServerError, "storage_error", "Failed to create ad unit")
		return
	}

	h.invalidate(r.Context(), unit.GameID)
	logger.HTTP().Info().
		Int("game_id", unit.GameID).
		Str("display_format", unit.DisplayFormat).
		Str("operator", r.Header.Get("X-Operator")).
		Msg("Ad unit created")

	sendJSON(w, http.StatusCreated, unit)
}

// Delete handles DELETE /admin/games/{gameID}/ad-units/{id}
func (h *AdUnitAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Ad unit management requires a database")
		return
	}

	gameID, err := strconv.Atoi(r.PathValue("gameID"))
	if err != nil || gameID <= 0 {
		sendError(w, http.StatusBadRequest, "invalid_game_id", "gameID must be a positive integer")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		sendError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	if err := h.store.Delete(r.Context(), gameID, id); err != nil {
		if errors.Is(err, storage.ErrAdUnitNotFound) {
			sendError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		logger.HTTP().Error().Err(err).Int("game_id", gameID).Int64("id", id).Msg("Failed to delete ad unit")
		sendError(w, http.StatusInternalServerError, "storage_error", "Failed to delete ad unit")
		return
	}

	h.invalidate(r.Context(), gameID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdUnitAdminHandler) invalidate(ctx context.Context, gameID int) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, catalog.CacheKey(strconv.Itoa(gameID))); err != nil {
		logger.HTTP().Warn().Err(err).Int("game_id", gameID).Msg("Failed to invalidate cached catalog")
	}
}
