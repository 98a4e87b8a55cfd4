package http_client

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	http_common "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/common"
	"github.com/KentaroHashi12/Futarigohan/internal/model"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
)

// Closer is notified when a client goes away so live connections can be
// dropped with it.
type Closer interface {
	Drop(id uuid.UUID)
}

type Controller struct {
	pool   *usecase_deck.Pool
	closer Closer
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithCloser(closer Closer) ControllerOption {
	return func(c *Controller) {
		c.closer = closer
	}
}

func New(pool *usecase_deck.Pool, opts ...ControllerOption) *Controller {
	c := &Controller{
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/clients")
	{
		clients.POST("", c.open)
		clients.GET("/:client_id", c.view)
		clients.POST("/:client_id/swipes", c.swipe)
		clients.PUT("/:client_id/identity", c.switchIdentity)
		clients.DELETE("/:client_id", c.close)
	}
}

type OpenRequestDTO struct {
	Identity string `json:"identity"`
}

type OpenResponseDTO struct {
	ClientID string            `json:"client_id"`
	View     usecase_deck.View `json:"view"`
}

type SwipeRequestDTO struct {
	Direction string `json:"direction" binding:"required"`
}

type IdentityRequestDTO struct {
	Identity string `json:"identity" binding:"required"`
}

func (c *Controller) open(ctx *gin.Context) {
	var req OpenRequestDTO
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid request format",
			})
			return
		}
	}

	user := model.UserA
	if req.Identity != "" {
		var err error
		if user, err = model.ParseUserID(req.Identity); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: err.Error(),
			})
			return
		}
	}

	id, _, v := c.pool.Open(ctx.Request.Context(), user)
	ctx.JSON(http.StatusCreated, OpenResponseDTO{
		ClientID: id.String(),
		View:     v,
	})
}

func (c *Controller) view(ctx *gin.Context) {
	u, ok := c.client(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, u.View())
}

func (c *Controller) swipe(ctx *gin.Context) {
	u, ok := c.client(ctx)
	if !ok {
		return
	}

	var req SwipeRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}
	dir, err := model.ParseDirection(req.Direction)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: err.Error(),
		})
		return
	}

	v, err := u.Swipe(ctx.Request.Context(), dir)
	if err != nil {
		if errors.Is(err, usecase_deck.ErrNothingToSwipe) {
			ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
				Message: "nothing to swipe",
			})
			return
		}
		c.logger.Error("failed to swipe", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}
	ctx.JSON(http.StatusOK, v)
}

func (c *Controller) switchIdentity(ctx *gin.Context) {
	u, ok := c.client(ctx)
	if !ok {
		return
	}

	var req IdentityRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}
	user, err := model.ParseUserID(req.Identity)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: err.Error(),
		})
		return
	}

	v, err := u.SwitchIdentity(ctx.Request.Context(), user)
	if err != nil {
		c.logger.Error("failed to switch identity", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}
	ctx.JSON(http.StatusOK, v)
}

func (c *Controller) close(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("client_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	if err := c.pool.Close(id); err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}
	if c.closer != nil {
		c.closer.Drop(id)
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) client(ctx *gin.Context) (*usecase_deck.Usecase, bool) {
	id, err := uuid.Parse(ctx.Param("client_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return nil, false
	}

	u, err := c.pool.Get(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return nil, false
	}
	return u, true
}
