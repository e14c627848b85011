package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/catalogue"
)

// BooksController exposes the catalogue query slice.
type BooksController struct {
	store *appstate.Store
}

func NewBooksController(store *appstate.Store) *BooksController {
	return &BooksController{store: store}
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search dispatches a catalogue query. The pending transition is applied
// before this handler returns; the settle transition lands whenever the
// remote response arrives. A new search supersedes a pending one without
// cancelling it.
// POST /api/books/search
func (bc *BooksController) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	// The settle transition outlives this request, so the fetch must not be
	// tied to the request context.
	bc.store.SearchBooks(context.Background(), req.Query)

	snapshot := bc.store.Snapshot()
	c.JSON(http.StatusAccepted, gin.H{"books": snapshot.Books})
}

// List returns the current books slice, optionally narrowed by the pure
// client-side filter (q + category query params). The filter is re-derived on
// every call from the full fetched list.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	snapshot := bc.store.Snapshot()

	query := c.Query("q")
	category := c.DefaultQuery("category", catalogue.CategoryAll)

	books := snapshot.Books
	if query != "" || category != catalogue.CategoryAll {
		books.Items = catalogue.Filter(books.Items, query, category)
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// Detail fetches a single work's description through the detail slice and
// returns the settled result.
// GET /api/books/detail?key=/works/OL...W
func (bc *BooksController) Detail(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondBadRequest(c, "key is required")
		return
	}

	if err := bc.store.FetchDetailWait(c.Request.Context(), key); err != nil {
		respondBadGateway(c, err.Error())
		return
	}

	snapshot := bc.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"detail": snapshot.Books.Details[key]})
}
