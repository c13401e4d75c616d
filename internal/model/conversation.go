package model

import "time"

// Conversation is a binary thread between a buyer and a seller, scoped to one
// listing. The composite unique index makes concurrent start calls for the
// same (listing, buyer, seller) triple collapse onto a single row instead of
// silently duplicating it.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint64    `gorm:"column:listing_id;index:idx_listing_pair,unique" json:"listingId"`
	BuyerUID  string    `gorm:"column:buyer_uid;size:128;index:idx_listing_pair,unique" json:"buyerUid"`
	SellerUID string    `gorm:"column:seller_uid;size:128;index:idx_listing_pair,unique" json:"sellerUid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Counterpart returns the participant other than selfUID. Callers must not
// re-derive this by filtering participant lists.
func (c Conversation) Counterpart(selfUID string) string {
	if selfUID == c.BuyerUID {
		return c.SellerUID
	}
	return c.BuyerUID
}

// HasParticipant reports whether uid is the buyer or the seller.
func (c Conversation) HasParticipant(uid string) bool {
	return uid != "" && (uid == c.BuyerUID || uid == c.SellerUID)
}
