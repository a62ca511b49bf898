package models

import (
	"time"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// OrderMappingModel is the persistence model for the OrderMapping domain
// record. Rows are insert-only; nothing updates or deletes them.
type OrderMappingModel struct {
	OrderID     string    `gorm:"type:varchar(64);primary_key"`
	CompanyCode int       `gorm:"not null"`
	VoucherType string    `gorm:"type:varchar(8);not null"`
	DocumentID  *string   `gorm:"type:varchar(64)"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderMappingModel) TableName() string {
	return "order_mappings"
}

// ToDomain converts the persistence model to a domain OrderMapping record.
func (m *OrderMappingModel) ToDomain() *syncdomain.OrderMapping {
	return &syncdomain.OrderMapping{
		OrderID:     m.OrderID,
		CompanyCode: m.CompanyCode,
		VoucherType: m.VoucherType,
		DocumentID:  m.DocumentID,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderMapping record.
func (m *OrderMappingModel) FromDomain(om *syncdomain.OrderMapping) {
	m.OrderID = om.OrderID
	m.CompanyCode = om.CompanyCode
	m.VoucherType = om.VoucherType
	m.DocumentID = om.DocumentID
	m.CreatedAt = om.CreatedAt
}
