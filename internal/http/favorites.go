package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/entities"
)

// DetailPrefetcher schedules a background description fetch for a newly
// favorited work. Optional; implemented by the task queue.
type DetailPrefetcher interface {
	PrefetchDetail(key string) error
}

// FavoritesController manages the favorited catalogue items.
type FavoritesController struct {
	store      *appstate.Store
	prefetcher DetailPrefetcher
}

func NewFavoritesController(store *appstate.Store, prefetcher DetailPrefetcher) *FavoritesController {
	return &FavoritesController{store: store, prefetcher: prefetcher}
}

// List returns the favorites in insertion order.
// GET /api/favorites
func (fc *FavoritesController) List(c *gin.Context) {
	snapshot := fc.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"favorites": snapshot.Favorites})
}

// Add favorites a catalogue item. Adding a key twice is a silent no-op.
// POST /api/favorites
func (fc *FavoritesController) Add(c *gin.Context) {
	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if book.Key == "" {
		respondBadRequest(c, "book key is required")
		return
	}

	if err := fc.store.AddFavorite(book); err != nil {
		respondInternalError(c, err, "add favorite")
		return
	}

	if fc.prefetcher != nil {
		if err := fc.prefetcher.PrefetchDetail(book.Key); err != nil {
			// Prefetch is best-effort; the favorite itself is already saved.
			log.Printf("Failed to schedule detail prefetch for %s: %v", book.Key, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"favorites": fc.store.Snapshot().Favorites})
}

// Remove unfavorites by key. Removing an absent key is a no-op.
// DELETE /api/favorites/*key
func (fc *FavoritesController) Remove(c *gin.Context) {
	key := c.Param("key")
	if key == "" || key == "/" {
		respondBadRequest(c, "book key is required")
		return
	}

	if err := fc.store.RemoveFavorite(key); err != nil {
		respondInternalError(c, err, "remove favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": fc.store.Snapshot().Favorites})
}
