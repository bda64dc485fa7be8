package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"movie-app/internal/api/httputil"
	"movie-app/internal/domain/users"
	"movie-app/internal/favorites"
)

type FavoritesUpdater interface {
	Update(ctx context.Context, userID string, favorites []string, change *favorites.Change) (*users.User, error)
}

type Handler struct {
	favorites FavoritesUpdater
	validate  httputil.StructValidator
	log       zerolog.Logger
}

func NewHandler(f FavoritesUpdater, v httputil.StructValidator, log zerolog.Logger) *Handler {
	return &Handler{favorites: f, validate: v, log: log}
}

// GET /user/profile
func (h *Handler) Profile(c *gin.Context) {
	u, ok := httputil.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.View()})
}

type updateFavoritesRequest struct {
	Favorites *[]string `json:"favorites" validate:"required,max=1000,dive,movieid"`
	MovieID   string    `json:"movieId" validate:"omitempty,movieid"`
	Action    string    `json:"action" validate:"omitempty,oneof=add remove"`
}

// PUT /user/favorites
func (h *Handler) UpdateFavorites(c *gin.Context) {
	u, ok := httputil.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req updateFavoritesRequest
	if err := httputil.BindJSON(c, h.validate, &req); err != nil {
		httputil.Error(c, h.log, err)
		return
	}

	var change *favorites.Change
	if req.MovieID != "" && req.Action != "" {
		change = &favorites.Change{MovieID: req.MovieID, Action: favorites.Action(req.Action)}
	}

	updated, err := h.favorites.Update(c.Request.Context(), u.ID, *req.Favorites, change)
	if err != nil {
		httputil.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated.View()})
}
