package model

import "time"

type User struct {
	UID       string    `gorm:"column:uid;primaryKey;size:128" json:"uid"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Username  string    `gorm:"size:120;not null" json:"username"`
	AvatarURL *string   `gorm:"column:avatar_url;size:512" json:"avatarUrl"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
