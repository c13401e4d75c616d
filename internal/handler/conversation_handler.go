package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ConversationResponse struct {
	ConversationID uint64 `json:"conversationId"`
	ListingID      uint64 `json:"listingId"`
	SellerUID      string `json:"sellerUid"`
	BuyerUID       string `json:"buyerUid"`
	UpdatedAt      string `json:"updatedAt"`
}

type ConversationSummaryResponse struct {
	ConversationResponse
	CounterpartUID       string           `json:"counterpartUid"`
	CounterpartName      string           `json:"counterpartName"`
	CounterpartAvatarURL *string          `json:"counterpartAvatarUrl,omitempty"`
	ListingTitle         string           `json:"listingTitle"`
	LatestMessage        *MessageResponse `json:"latestMessage,omitempty"`
	UnreadCount          int64            `json:"unreadCount"`
}

type MessageResponse struct {
	ID              uint64  `json:"id"`
	ConversationID  uint64  `json:"conversationId"`
	SenderUID       string  `json:"senderUid"`
	SenderName      string  `json:"senderName,omitempty"`
	SenderAvatarURL *string `json:"senderAvatarUrl,omitempty"`
	Body            string  `json:"body"`
	Read            bool    `json:"read"`
	CreatedAt       string  `json:"createdAt"`
}

type StartConversationRequest struct {
	PeerUID string `json:"peerUid"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

func toConversationResponse(cv model.Conversation) ConversationResponse {
	return ConversationResponse{
		ConversationID: cv.ID,
		ListingID:      cv.ListingID,
		SellerUID:      cv.SellerUID,
		BuyerUID:       cv.BuyerUID,
		UpdatedAt:      cv.UpdatedAt.Format(time.RFC3339),
	}
}

func toMessageResponse(m service.MessageWithSender) MessageResponse {
	return MessageResponse{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderUID:       m.SenderUID,
		SenderName:      m.SenderName,
		SenderAvatarURL: m.SenderAvatarURL,
		Body:            m.Body,
		Read:            m.Read,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
}

func toBareMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderUID:      m.SenderUID,
		Body:           m.Body,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

// convError maps coordinator errors to the JSON envelope.
func convError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "operation failed"))
}

func (h *ConversationHandler) StartFromListing(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	var req StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	cv, err := h.svc.StartOrGet(c.Request().Context(), listingID, uid, req.PeerUID)
	if err != nil {
		return convError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(*cv))
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	sums, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch conversations"))
	}
	resp := make([]ConversationSummaryResponse, 0, len(sums))
	for _, s := range sums {
		entry := ConversationSummaryResponse{
			ConversationResponse: toConversationResponse(s.Conversation),
			CounterpartUID:       s.CounterpartUID,
			CounterpartName:      s.CounterpartName,
			CounterpartAvatarURL: s.CounterpartAvatarURL,
			ListingTitle:         s.ListingTitle,
			UnreadCount:          s.UnreadCount,
		}
		if s.LatestMessage != nil {
			m := toBareMessageResponse(*s.LatestMessage)
			entry.LatestMessage = &m
		}
		resp = append(resp, entry)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	cv, err := h.svc.Get(c.Request().Context(), convID, uid)
	if err != nil {
		return convError(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(*cv))
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), convID, uid)
	if err != nil {
		return convError(c, err)
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), convID, uid, req.Body)
	if err != nil {
		return convError(c, err)
	}
	return c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.svc.MarkRead(c.Request().Context(), convID, uid); err != nil {
		return convError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
