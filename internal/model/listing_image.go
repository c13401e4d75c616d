package model

import "time"

type ListingImage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint64    `gorm:"column:listing_id;not null;index:idx_listing_images_listing_id" json:"listingId"`
	ImageURL  string    `gorm:"column:image_url;size:512;not null" json:"imageUrl"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ListingImage) TableName() string {
	return "listing_images"
}
