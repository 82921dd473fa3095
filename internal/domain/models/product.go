package models

import "time"

// Product is a catalog entry. Stock quantity is the only field the billing
// core ever writes; everything else belongs to catalog management.
type Product struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	Barcode       string    `bson:"barcode,omitempty" json:"barcode,omitempty"`
	QRCodeText    string    `bson:"qr_code_text,omitempty" json:"qrCodeText,omitempty"`
	HSNCode       string    `bson:"hsn_code,omitempty" json:"hsnCode,omitempty"`
	Category      string    `bson:"category,omitempty" json:"category,omitempty"`
	Brand         string    `bson:"brand,omitempty" json:"brand,omitempty"`
	Unit          string    `bson:"unit" json:"unit"`
	MRP           float64   `bson:"mrp" json:"mrp"`
	SalesPrice    float64   `bson:"sales_price" json:"salesPrice"`
	CostPrice     float64   `bson:"cost_price,omitempty" json:"costPrice,omitempty"`
	GSTRate       float64   `bson:"gst_rate" json:"gstRate"`
	StockQuantity float64   `bson:"stock_quantity" json:"stockQuantity"`
	MinStockLevel float64   `bson:"min_stock_level" json:"minStockLevel"`
	IsActive      bool      `bson:"is_active" json:"isActive"`
	CreatedBy     string    `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsLowStock reports whether the product has fallen to or below its
// configured minimum stock level.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}
