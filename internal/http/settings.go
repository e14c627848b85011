package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/kvstore"
)

// SettingsController exposes the appearance preference. The theme store is an
// injected dependency; nothing else in the process reads ambient theme state.
type SettingsController struct {
	themes *kvstore.ThemeStore
}

func NewSettingsController(themes *kvstore.ThemeStore) *SettingsController {
	return &SettingsController{themes: themes}
}

// GetTheme returns the effective theme (persisted value or default).
// GET /api/settings/theme
func (sc *SettingsController) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": sc.themes.Get()})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme persists the theme preference.
// PUT /api/settings/theme
func (sc *SettingsController) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Theme == "" {
		respondBadRequest(c, "theme is required")
		return
	}

	if err := sc.themes.Set(req.Theme); err != nil {
		respondInternalError(c, err, "set theme")
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}
