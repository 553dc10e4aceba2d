package model

import "time"

// お客様レビュー。承認されるまで公開されない。
type Review struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName  string    `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string    `gorm:"type:varchar(255);not null" json:"customer_email"`
	Rating        int       `gorm:"not null" json:"rating"`
	ReviewText    string    `gorm:"type:text;not null" json:"review_text"`
	PhotoURL      string    `gorm:"type:varchar(1024)" json:"photo_url,omitempty"`
	ProductID     *int64    `gorm:"index" json:"product_id,omitempty"`
	ProductName   string    `gorm:"type:varchar(255)" json:"product_name,omitempty"`
	Approved      bool      `gorm:"not null;default:false;index" json:"approved"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
