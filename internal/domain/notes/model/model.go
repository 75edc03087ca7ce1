package model

import "time"

const MaxBodyLength = 5000

type Note struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"index;not null"`
	Body      string `gorm:"size:5000;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n Note) OwnerID() uint64 { return n.UserID }
