package ws_client

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	http_common "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/common"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	hub    *Hub
	pool   *usecase_deck.Pool
	logger *slog.Logger
}

func NewController(hub *Hub, pool *usecase_deck.Pool) *Controller {
	return &Controller{
		hub:    hub,
		pool:   pool,
		logger: hub.logger,
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/clients/:client_id/ws", c.connect)
}

func (c *Controller) connect(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("client_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{Message: "not found"})
		return
	}
	u, err := c.pool.Get(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{Message: "not found"})
		return
	}

	ws, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := &Conn{
		Hub:      c.hub,
		Conn:     ws,
		Send:     make(chan []byte, 16),
		ClientID: id,
	}

	// Current view first so the page can render without polling.
	first, _ := json.Marshal(Event{Type: EventView, Payload: u.View()})
	conn.Send <- first
	c.hub.Register(conn)

	go c.hub.StartWriting(conn)
	go c.hub.StartReading(conn)
}
