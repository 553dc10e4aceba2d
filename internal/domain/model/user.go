package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User はお客様と店舗スタッフ。
// Phone はチェックアウト画面の初期値に使うだけで必須ではない。
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string `gorm:"type:varchar(100)"`
	Phone        string `gorm:"type:varchar(20)"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'"`
	// 上げると発行済みのJWTがすべて無効になる
	TokenVersion int  `gorm:"not null;default:0"`
	IsActive     bool `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
