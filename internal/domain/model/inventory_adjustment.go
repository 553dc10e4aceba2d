package model

import "time"

type AdjustmentKind string

const (
	AdjustmentOrder  AdjustmentKind = "ORDER"
	AdjustmentCancel AdjustmentKind = "CANCEL"
	AdjustmentManual AdjustmentKind = "MANUAL"
)

// 在庫の増減履歴。Deltaは実際に動いた量（在庫切れで削れた分は含まない）
type InventoryAdjustment struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64          `gorm:"not null;index" json:"product_id"`
	Kind        AdjustmentKind `gorm:"type:varchar(16);not null" json:"kind"`
	OrderID     *int64         `gorm:"index" json:"order_id,omitempty"`
	ActorUserID int64          `gorm:"not null" json:"actor_user_id"`
	Delta       int64          `gorm:"not null" json:"delta"`
	Reason      string         `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}
