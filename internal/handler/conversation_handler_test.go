package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/service"
)

// stubConversationService is a test double for service.ConversationService.
type stubConversationService struct {
	startOrGet   func(listingID uint64, userA, userB string) (*model.Conversation, error)
	sendMessage  func(convID uint64, senderUID, body string) (*service.MessageWithSender, error)
	listByUser   func(uid string) ([]service.ConversationSummary, error)
	listMessages func(convID uint64, uid string) ([]service.MessageWithSender, error)
	markRead     func(convID uint64, readerUID string) error
}

func (s *stubConversationService) StartOrGet(_ context.Context, listingID uint64, userA, userB string) (*model.Conversation, error) {
	return s.startOrGet(listingID, userA, userB)
}
func (s *stubConversationService) Get(_ context.Context, convID uint64, uid string) (*model.Conversation, error) {
	return &model.Conversation{ID: convID, BuyerUID: uid}, nil
}
func (s *stubConversationService) SendMessage(_ context.Context, convID uint64, senderUID, body string) (*service.MessageWithSender, error) {
	return s.sendMessage(convID, senderUID, body)
}
func (s *stubConversationService) ListByUser(_ context.Context, uid string) ([]service.ConversationSummary, error) {
	return s.listByUser(uid)
}
func (s *stubConversationService) ListMessages(_ context.Context, convID uint64, uid string) ([]service.MessageWithSender, error) {
	return s.listMessages(convID, uid)
}
func (s *stubConversationService) MarkRead(_ context.Context, convID uint64, readerUID string) error {
	return s.markRead(convID, readerUID)
}

func newContext(t *testing.T, method, path, body, uid string, paramNames, paramValues []string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	if body == "" {
		body = "{}"
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	c.SetParamNames(paramNames...)
	c.SetParamValues(paramValues...)
	return c, rec
}

func TestSendMessageHandler(t *testing.T) {
	tests := []struct {
		name       string
		uid        string
		convID     string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"created", "buyer", "7", `{"body":"hello"}`, nil, http.StatusCreated},
		{"missing uid", "", "7", `{"body":"hello"}`, nil, http.StatusUnauthorized},
		{"bad conversation id", "buyer", "abc", `{"body":"hello"}`, nil, http.StatusBadRequest},
		{"validation error", "buyer", "7", `{"body":""}`, service.ErrValidation, http.StatusBadRequest},
		{"not found", "buyer", "999", `{"body":"hello"}`, service.ErrNotFound, http.StatusNotFound},
		{"forbidden", "stranger", "7", `{"body":"hello"}`, service.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubConversationService{
				sendMessage: func(convID uint64, senderUID, body string) (*service.MessageWithSender, error) {
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &service.MessageWithSender{
						Message:    model.Message{ID: 1, ConversationID: convID, SenderUID: senderUID, Body: body},
						SenderName: "Aki",
					}, nil
				},
			}
			h := NewConversationHandler(svc)
			c, rec := newContext(t, http.MethodPost, "/api/conversations/"+tt.convID+"/messages", tt.body, tt.uid, []string{"id"}, []string{tt.convID})

			if err := h.SendMessage(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				var resp MessageResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.Body != "hello" || resp.SenderName != "Aki" {
					t.Fatalf("resp=%+v", resp)
				}
			}
		})
	}
}

func TestListConversationsHandler(t *testing.T) {
	latest := model.Message{ID: 3, ConversationID: 7, SenderUID: "buyer", Body: "Is this available?"}
	svc := &stubConversationService{
		listByUser: func(uid string) ([]service.ConversationSummary, error) {
			return []service.ConversationSummary{
				{
					Conversation:    model.Conversation{ID: 7, ListingID: 42, BuyerUID: "buyer", SellerUID: uid},
					CounterpartUID:  "buyer",
					CounterpartName: "Aki",
					ListingTitle:    "Used bicycle",
					LatestMessage:   &latest,
					UnreadCount:     1,
				},
				{
					Conversation:   model.Conversation{ID: 8, ListingID: 43, BuyerUID: "other", SellerUID: uid},
					CounterpartUID: "other",
				},
			}, nil
		},
	}
	h := NewConversationHandler(svc)
	c, rec := newContext(t, http.MethodGet, "/api/conversations", "", "seller", nil, nil)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp []ConversationSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len=%d want=2", len(resp))
	}
	if resp[0].LatestMessage == nil || resp[0].LatestMessage.Body != "Is this available?" {
		t.Fatalf("latest=%+v", resp[0].LatestMessage)
	}
	if resp[1].LatestMessage != nil {
		t.Fatal("empty thread must serialize without latestMessage")
	}
}

func TestStartFromListingHandler(t *testing.T) {
	svc := &stubConversationService{
		startOrGet: func(listingID uint64, userA, userB string) (*model.Conversation, error) {
			if listingID != 42 || userA != "buyer" || userB != "" {
				t.Fatalf("args=%d/%s/%s", listingID, userA, userB)
			}
			return &model.Conversation{ID: 7, ListingID: 42, BuyerUID: "buyer", SellerUID: "seller"}, nil
		},
	}
	h := NewConversationHandler(svc)
	c, rec := newContext(t, http.MethodPost, "/api/listings/42/conversations", "", "buyer", []string{"id"}, []string{"42"})

	if err := h.StartFromListing(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ConversationID != 7 || resp.ListingID != 42 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestMarkReadHandler(t *testing.T) {
	var gotConv uint64
	var gotReader string
	svc := &stubConversationService{
		markRead: func(convID uint64, readerUID string) error {
			gotConv, gotReader = convID, readerUID
			return nil
		},
	}
	h := NewConversationHandler(svc)
	c, rec := newContext(t, http.MethodPost, "/api/conversations/7/read", "", "buyer", []string{"id"}, []string{"7"})

	if err := h.MarkRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if gotConv != 7 || gotReader != "buyer" {
		t.Fatalf("got=%d/%s", gotConv, gotReader)
	}
}
