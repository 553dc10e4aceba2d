package model

import "time"

type AuditAction string

const (
	AuditActionCreateProduct     AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct     AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct     AuditAction = "DELETE_PRODUCT"
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionApproveReview     AuditAction = "APPROVE_REVIEW"
	AuditActionDeleteReview      AuditAction = "DELETE_REVIEW"
	AuditActionForceLogout       AuditAction = "FORCE_LOGOUT"
)

// 管理者が何をいじったかの判定に使う
func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreateProduct, AuditActionUpdateProduct, AuditActionDeleteProduct,
		AuditActionUpdateStock, AuditActionUpdateOrderStatus,
		AuditActionApproveReview, AuditActionDeleteReview, AuditActionForceLogout:
		return true
	}
	return false
}

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
	AuditResourceReview  AuditResourceType = "review"
)

func (t AuditResourceType) Valid() bool {
	switch t {
	case AuditResourceProduct, AuditResourceOrder, AuditResourceUser, AuditResourceReview:
		return true
	}
	return false
}

// 管理者操作ログ。before/afterは変更に関係する項目だけをJSONで持つ
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index:idx_audit_resource" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}
