package model

import "time"

// CartSnapshot is one persisted cart record: the JSON item array stored under a key
type CartSnapshot struct {
	Key       string    `gorm:"primaryKey;type:varchar(191)" json:"key"`
	Payload   []byte    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
