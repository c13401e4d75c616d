package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/hsawaji/flema-backend/internal/realtime"
	"github.com/hsawaji/flema-backend/internal/service"
)

// RealtimeHandler streams newly inserted messages of one conversation over a
// websocket. Events carry the raw inserted row; clients refetch the message
// list to resolve sender display fields or to reconcile after a reconnect.
type RealtimeHandler struct {
	svc  service.ConversationService
	feed *realtime.Feed
	up   websocket.Upgrader
}

func NewRealtimeHandler(svc service.ConversationService, feed *realtime.Feed) *RealtimeHandler {
	return &RealtimeHandler{
		svc:  svc,
		feed: feed,
		up: websocket.Upgrader{
			// Origin is already vetted by the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type MessageEvent struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if _, err := h.svc.Get(c.Request().Context(), convID, uid); err != nil {
		return convError(c, err)
	}

	conn, err := h.up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := h.feed.Subscribe(convID)
	defer sub.Close()

	// Read pump: the client never sends payloads; reading surfaces the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			ev := MessageEvent{Type: "message.created", Message: toBareMessageResponse(msg)}
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
