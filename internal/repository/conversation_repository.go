package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hsawaji/flema-backend/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	FindOrCreate(ctx context.Context, listingID uint64, sellerUID, buyerUID string) (*model.Conversation, error)
	FindByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, convID uint64) ([]model.Message, error)
	LatestMessage(ctx context.Context, convID uint64) (*model.Message, error)
	TouchUpdatedAt(ctx context.Context, convID uint64, at time.Time) error
	MarkRead(ctx context.Context, convID uint64, readerUID string) error
	CountUnread(ctx context.Context, convID uint64, readerUID string) (int64, error)
	SetDB(db *gorm.DB)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// FindOrCreate matches both participant-order permutations before creating,
// since older rows may carry the pair in either role assignment. New rows are
// always written with the canonical (seller, buyer) roles; the unique index on
// (listing_id, buyer_uid, seller_uid) catches the concurrent-create race.
func (r *conversationRepository) FindOrCreate(ctx context.Context, listingID uint64, sellerUID, buyerUID string) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND ((buyer_uid = ? AND seller_uid = ?) OR (buyer_uid = ? AND seller_uid = ?))",
			listingID, buyerUID, sellerUID, sellerUID, buyerUID).
		First(&cv).Error
	if err == nil {
		return &cv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cv = model.Conversation{ListingID: listingID, SellerUID: sellerUID, BuyerUID: buyerUID}
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_uid = ? AND seller_uid = ?", listingID, buyerUID, sellerUID).
		FirstOrCreate(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ? OR buyer_uid = ?", uid, uid).
		Order("updated_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// LatestMessage returns (nil, nil) for an empty thread.
func (r *conversationRepository) LatestMessage(ctx context.Context, convID uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *conversationRepository) TouchUpdatedAt(ctx context.Context, convID uint64, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", convID).
		Update("updated_at", at).Error
}

// MarkRead flips every unread message not authored by readerUID. The bulk
// update is idempotent; a partially applied update is left as-is.
func (r *conversationRepository) MarkRead(ctx context.Context, convID uint64, readerUID string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ? AND sender_uid <> ? AND is_read = ?", convID, readerUID, false).
		Update("is_read", true).Error
}

func (r *conversationRepository) CountUnread(ctx context.Context, convID uint64, readerUID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ? AND sender_uid <> ? AND is_read = ?", convID, readerUID, false).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
