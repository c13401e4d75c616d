package model

import "time"

type ListingCondition string

const (
	ConditionNew  ListingCondition = "new"
	ConditionGood ListingCondition = "good"
	ConditionFair ListingCondition = "fair"
	ConditionPoor ListingCondition = "poor"
)

func (c ListingCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Listing struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerUID   string           `gorm:"column:seller_uid;size:128;index;not null" json:"sellerUid"`
	Title       string           `gorm:"size:120;not null" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Price       uint             `gorm:"not null" json:"price"`
	Condition   ListingCondition `gorm:"column:item_condition;size:16;not null" json:"condition"`
	CategoryID  uint64           `gorm:"column:category_id;index" json:"categoryId"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}
