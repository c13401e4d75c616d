package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/realtime"
	"github.com/hsawaji/flema-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation")
)

// MessageWithSender is a message with the sender's display fields resolved
// from the profile table. The realtime push path delivers bare model.Message
// rows instead; clients refetch to resolve.
type MessageWithSender struct {
	model.Message
	SenderName      string  `json:"senderName"`
	SenderAvatarURL *string `json:"senderAvatarUrl"`
}

// ConversationSummary is one inbox entry: the counterpart's display fields,
// the listing title, and the latest message if the thread has any.
type ConversationSummary struct {
	Conversation         model.Conversation
	CounterpartUID       string
	CounterpartName      string
	CounterpartAvatarURL *string
	ListingTitle         string
	LatestMessage        *model.Message
	UnreadCount          int64
}

type ConversationService interface {
	// StartOrGet returns the single conversation for (listing, participant
	// pair), creating it on first contact. Argument order of the two
	// participants does not matter; roles are derived from the listing's
	// seller. An empty userB defaults to the seller.
	StartOrGet(ctx context.Context, listingID uint64, userA, userB string) (*model.Conversation, error)
	Get(ctx context.Context, convID uint64, uid string) (*model.Conversation, error)
	SendMessage(ctx context.Context, convID uint64, senderUID, body string) (*MessageWithSender, error)
	ListByUser(ctx context.Context, uid string) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, convID uint64, uid string) ([]MessageWithSender, error)
	MarkRead(ctx context.Context, convID uint64, readerUID string) error
}

type conversationService struct {
	convRepo    repository.ConversationRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	notifSvc    NotificationService
	feed        *realtime.Feed
}

func NewConversationService(convRepo repository.ConversationRepository, listingRepo repository.ListingRepository, userRepo repository.UserRepository, notifSvc NotificationService, feed *realtime.Feed) ConversationService {
	return &conversationService{
		convRepo:    convRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
		feed:        feed,
	}
}

func (s *conversationService) StartOrGet(ctx context.Context, listingID uint64, userA, userB string) (*model.Conversation, error) {
	if userA == "" {
		return nil, fmt.Errorf("%w: participant is required", ErrValidation)
	}
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userB == "" {
		userB = listing.SellerUID
	}
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot chat with yourself", ErrValidation)
	}

	var buyerUID string
	switch listing.SellerUID {
	case userA:
		buyerUID = userB
	case userB:
		buyerUID = userA
	default:
		return nil, fmt.Errorf("%w: neither participant sells this listing", ErrValidation)
	}

	for _, uid := range []string{listing.SellerUID, buyerUID} {
		u, err := s.userRepo.FindByUID(ctx, uid)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrNotFound
		}
	}

	return s.convRepo.FindOrCreate(ctx, listingID, listing.SellerUID, buyerUID)
}

func (s *conversationService) Get(ctx context.Context, convID uint64, uid string) (*model.Conversation, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !cv.HasParticipant(uid) {
		return nil, ErrForbidden
	}
	return cv, nil
}

// SendMessage inserts the message, then touches the conversation's
// updated_at, publishes to the realtime feed and notifies the counterpart.
// Everything after the insert is best-effort: the message is never rolled
// back because inbox freshness or push delivery failed.
func (s *conversationService) SendMessage(ctx context.Context, convID uint64, senderUID, body string) (*MessageWithSender, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrValidation)
	}
	cv, err := s.Get(ctx, convID, senderUID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: convID,
		SenderUID:      senderUID,
		Body:           body,
	}
	if err := s.convRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.convRepo.TouchUpdatedAt(ctx, convID, msg.CreatedAt); err != nil {
		log.Printf("conversation %d: touch updated_at failed: %v", convID, err)
	}
	if s.feed != nil {
		s.feed.Publish(*msg)
	}
	if s.notifSvc != nil {
		preview := body
		if r := []rune(preview); len(r) > 80 {
			preview = string(r[:80])
		}
		s.notifSvc.Notify(ctx, cv.Counterpart(senderUID), "message.created", "New message", preview, &cv.ListingID, &cv.ID)
	}

	resolved := s.resolveSender(ctx, *msg, map[string]*model.User{})
	return &resolved, nil
}

func (s *conversationService) ListByUser(ctx context.Context, uid string) ([]ConversationSummary, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	convs, err := s.convRepo.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, cv := range convs {
		sum := ConversationSummary{
			Conversation:   cv,
			CounterpartUID: cv.Counterpart(uid),
		}

		counterpart, err := s.userRepo.FindByUID(ctx, sum.CounterpartUID)
		if err != nil {
			return nil, err
		}
		if counterpart != nil {
			sum.CounterpartName = counterpart.Username
			sum.CounterpartAvatarURL = counterpart.AvatarURL
		} else {
			sum.CounterpartName = sum.CounterpartUID
		}

		listing, err := s.listingRepo.FindByID(ctx, cv.ListingID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if listing != nil {
			sum.ListingTitle = listing.Title
		}

		// Threads without messages yield a nil LatestMessage, not an error.
		latest, err := s.convRepo.LatestMessage(ctx, cv.ID)
		if err != nil {
			return nil, err
		}
		sum.LatestMessage = latest

		unread, err := s.convRepo.CountUnread(ctx, cv.ID, uid)
		if err != nil {
			return nil, err
		}
		sum.UnreadCount = unread

		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *conversationService) ListMessages(ctx context.Context, convID uint64, uid string) ([]MessageWithSender, error) {
	if _, err := s.Get(ctx, convID, uid); err != nil {
		return nil, err
	}
	msgs, err := s.convRepo.ListMessages(ctx, convID)
	if err != nil {
		return nil, err
	}
	cache := map[string]*model.User{}
	out := make([]MessageWithSender, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.resolveSender(ctx, m, cache))
	}
	return out, nil
}

func (s *conversationService) MarkRead(ctx context.Context, convID uint64, readerUID string) error {
	if _, err := s.Get(ctx, convID, readerUID); err != nil {
		return err
	}
	if err := s.convRepo.MarkRead(ctx, convID, readerUID); err != nil {
		return err
	}
	if s.notifSvc != nil {
		if err := s.notifSvc.MarkByConversation(ctx, readerUID, convID); err != nil {
			log.Printf("conversation %d: mark notifications read failed: %v", convID, err)
		}
	}
	return nil
}

// resolveSender attaches the sender's profile display fields, falling back to
// the bare UID when no profile row exists. cache avoids refetching the same
// sender within one listing pass.
func (s *conversationService) resolveSender(ctx context.Context, m model.Message, cache map[string]*model.User) MessageWithSender {
	out := MessageWithSender{Message: m, SenderName: m.SenderUID}
	u, ok := cache[m.SenderUID]
	if !ok {
		var err error
		u, err = s.userRepo.FindByUID(ctx, m.SenderUID)
		if err != nil {
			log.Printf("message %d: resolve sender %s failed: %v", m.ID, m.SenderUID, err)
			return out
		}
		cache[m.SenderUID] = u
	}
	if u != nil {
		out.SenderName = u.Username
		out.SenderAvatarURL = u.AvatarURL
	}
	return out
}
