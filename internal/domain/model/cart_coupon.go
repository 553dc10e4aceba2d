package model

import "time"

// カートに適用中のクーポン（ユーザーごとに最大1つ）
type CartCoupon struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Code      string    `gorm:"type:varchar(50);not null" json:"code"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
