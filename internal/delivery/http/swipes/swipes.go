package http_swipes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/common"
	http_recipe "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/recipe"
	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/KentaroHashi12/Futarigohan/internal/service/progress"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
)

type Controller struct {
	swipes  usecase_deck.SwipeLog
	pool    *usecase_deck.Pool
	catalog *model.Catalog
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	swipes usecase_deck.SwipeLog,
	pool *usecase_deck.Pool,
	catalog *model.Catalog,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		swipes:  swipes,
		pool:    pool,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/swipes", c.list)
	router.DELETE("/swipes", c.reset)
	router.GET("/matches", c.matches)
	router.GET("/progress", c.summary)
}

func (c *Controller) list(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.swipes.AllRecords(ctx.Request.Context()))
}

// reset wipes the whole shared history and rebuilds every hosted client.
func (c *Controller) reset(ctx *gin.Context) {
	if err := c.pool.ResetAll(ctx.Request.Context()); err != nil {
		c.logger.Error("failed to reset swipe log", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) matches(ctx *gin.Context) {
	ids := progress.Matches(c.swipes.AllRecords(ctx.Request.Context())).Sorted()
	ctx.JSON(http.StatusOK, http_recipe.ToDTOs(c.catalog.Resolve(ids)))
}

func (c *Controller) summary(ctx *gin.Context) {
	log := c.swipes.AllRecords(ctx.Request.Context())
	regular := c.catalog.RegularIDs()

	out := make([]progress.Progress, 0, len(model.Users))
	for _, u := range model.Users {
		out = append(out, progress.Summarize(log, u, regular))
	}
	ctx.JSON(http.StatusOK, out)
}
