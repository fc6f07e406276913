// Package endpoints provides HTTP endpoint handlers for the catalog service
package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// CatalogStore loads a game's ad units
type CatalogStore interface {
	Catalog(ctx context.Context, gameID int) (*catalog.Response, error)
}

// CatalogCache caches encoded catalogs; Del is used for invalidation
type CatalogCache interface {
	catalog.Cache
	Del(ctx context.Context, keys ...string) error
}

// ServedMetrics counts catalogs served by source ("cache" or "store")
type ServedMetrics interface {
	RecordCatalogServed(source string)
}

// ErrorResponse is a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CatalogHandler serves GET /ads/{gameID}
type CatalogHandler struct {
	store   CatalogStore
	cache   CatalogCache
	ttl     time.Duration
	metrics ServedMetrics
	loads   singleflight.Group
}

// NewCatalogHandler creates a catalog handler. store and cache may be nil;
// without a store every request is answered with 503.
func NewCatalogHandler(store CatalogStore, cache CatalogCache, ttl time.Duration) *CatalogHandler {
	if ttl <= 0 {
		ttl = config.CatalogCacheTTL
	}
	return &CatalogHandler{store: store, cache: cache, ttl: ttl}
}

// SetMetrics wires served-catalog metrics
func (h *CatalogHandler) SetMetrics(m ServedMetrics) {
	h.metrics = m
}

// ServeHTTP handles GET /ads/{gameID}
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("gameID")
	gameID, err := strconv.Atoi(raw)
	if err != nil || gameID <= 0 {
		sendError(w, http.StatusBadRequest, "invalid_game_id", "gameID must be a positive integer")
		return
	}

	if h.store == nil {
		sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Ad unit storage is not configured")
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx).With().Int("game_id", gameID).Logger()
	key := catalog.CacheKey(strconv.Itoa(gameID))

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Catalog cache read failed, falling back to store")
		} else if cached != "" {
			h.recordServed("cache")
			h.writeCatalog(w, []byte(cached))
			return
		}
	}

	// Concurrent misses for the same game share one store load
	v, err, _ := h.loads.Do(key, func() (interface{}, error) {
		return h.load(context.WithoutCancel(ctx), gameID, key)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load catalog")
		sendError(w, http.StatusInternalServerError, "storage_error", "Failed to load ad units")
		return
	}
	body := v.([]byte)

	h.recordServed("store")
	h.writeCatalog(w, body)
}

// load reads the catalog from the store and refreshes the cache
func (h *CatalogHandler) load(ctx context.Context, gameID int, key string) ([]byte, error) {
	resp, err := h.store.Catalog(ctx, gameID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, string(body), h.ttl); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Int("game_id", gameID).Msg("Catalog cache write failed")
		}
	}
	return body, nil
}

func (h *CatalogHandler) writeCatalog(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(h.ttl.Seconds())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.HTTP().Debug().Err(err).Msg("Failed to write catalog response")
	}
}

func (h *CatalogHandler) recordServed(source string) {
	if h.metrics != nil {
		h.metrics.RecordCatalogServed(source)
	}
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.HTTP().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// sendError sends a JSON error response
func sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	sendJSON(w, statusCode, ErrorResponse{Error: errorCode, Message: message})
}
