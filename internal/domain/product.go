package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// money fields go over the wire as plain JSON numbers, matching what the
	// catalogue/payments consumers already parse
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalogue item. Rows are never physically deleted;
// delete flips IsActive to false and listing only ever shows active rows.
// IsActive carries no column default: a default tag would make gorm omit an
// explicit false from the insert, silently activating the row. The service
// layer owns the default instead.
type Product struct {
	ID        int64           `gorm:"column:product_id;primaryKey;autoIncrement" json:"product_id" form:"product_id"`
	Sku       string          `gorm:"size:64;uniqueIndex" json:"sku" form:"sku"`
	Name      string          `gorm:"index" json:"name" form:"name"`
	Category  *string         `gorm:"size:128;index" json:"category" form:"category"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price" form:"price"`
	IsActive  bool            `json:"is_active" form:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "catalogue"
}
