package http_recipe

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/common"
	"github.com/KentaroHashi12/Futarigohan/internal/model"
)

type Controller struct {
	catalog *model.Catalog
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(catalog *model.Catalog, opts ...ControllerOption) *Controller {
	c := &Controller{
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", c.list)
		recipes.GET("/:recipe_id", c.get)
		recipes.GET("/:recipe_id/search", c.search)
	}
}

type RecipeDTO struct {
	model.Recipe
	Fallback  bool   `json:"fallback"`
	SearchURL string `json:"search_url"`
}

func ToDTO(r model.Recipe) RecipeDTO {
	return RecipeDTO{
		Recipe:    r,
		Fallback:  r.IsFallback(),
		SearchURL: r.SearchURL(),
	}
}

func ToDTOs(rs []model.Recipe) []RecipeDTO {
	out := make([]RecipeDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToDTO(r))
	}
	return out
}

func (c *Controller) list(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, ToDTOs(c.catalog.All()))
}

func (c *Controller) get(ctx *gin.Context) {
	r, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, ToDTO(r))
}

// search sends the browser to a web search for the recipe.
func (c *Controller) search(ctx *gin.Context) {
	r, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.Redirect(http.StatusFound, r.SearchURL())
}

func (c *Controller) lookup(ctx *gin.Context) (model.Recipe, bool) {
	r, err := c.catalog.Get(ctx.Param("recipe_id"))
	if err != nil {
		if errors.Is(err, model.ErrRecipeNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return model.Recipe{}, false
		}
		c.logger.Error("failed to get recipe", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return model.Recipe{}, false
	}
	return r, true
}
