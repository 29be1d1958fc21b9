package importer

import (
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecistack/ecommerce/internal/domain"
)

type productRow struct {
	ProductID int64  `csv:"product_id"`
	Sku       string `csv:"sku"`
	Name      string `csv:"name"`
	Category  string `csv:"category"`
	Price     string `csv:"price"`
	IsActive  string `csv:"is_active"`
}

type paymentRow struct {
	PaymentID int64  `csv:"payment_id"`
	OrderID   int64  `csv:"order_id"`
	Amount    string `csv:"amount"`
	Method    string `csv:"method"`
	Status    string `csv:"status"`
	Reference string `csv:"reference"`
	CreatedAt string `csv:"created_at"`
}

// ImportProducts loads a catalogue CSV, upserting on product_id. Returns the
// number of rows written.
func ImportProducts(db *gorm.DB, csvPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, errors.Wrap(err, "open products csv")
	}
	defer f.Close()

	var rows []productRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return 0, errors.Wrap(err, "parse products csv")
	}

	count := 0
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			zap.L().Warn("skipping product row with bad price",
				zap.Int64("product_id", row.ProductID), zap.String("price", row.Price))
			continue
		}
		var category *string
		if row.Category != "" {
			v := row.Category
			category = &v
		}
		product := domain.Product{
			ID:       row.ProductID,
			Sku:      row.Sku,
			Name:     row.Name,
			Category: category,
			Price:    price,
			IsActive: row.IsActive == "" || cast.ToBool(row.IsActive),
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			UpdateAll: true,
		}).Create(&product).Error
		if err != nil {
			return count, errors.Wrapf(err, "upsert product %d", row.ProductID)
		}
		count++
	}
	return count, nil
}

// ImportPayments loads a payments CSV, upserting on payment_id. The CSV
// carries SUCCESS/FAILED status labels and no refunded column.
func ImportPayments(db *gorm.DB, csvPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, errors.Wrap(err, "open payments csv")
	}
	defer f.Close()

	var rows []paymentRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return 0, errors.Wrap(err, "parse payments csv")
	}

	count := 0
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			zap.L().Warn("skipping payment row with bad amount",
				zap.Int64("payment_id", row.PaymentID), zap.String("amount", row.Amount))
			continue
		}
		createdAt := time.Now()
		if row.CreatedAt != "" {
			if t, err := dateparse.ParseAny(row.CreatedAt); err == nil {
				createdAt = t
			}
		}
		record := domain.Payment{
			ID:        row.PaymentID,
			OrderID:   row.OrderID,
			Amount:    amount,
			Method:    row.Method,
			Status:    cast.ToBool(row.Status) || row.Status == "SUCCESS",
			Reference: row.Reference,
			CreatedAt: createdAt,
			Refunded:  false,
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			UpdateAll: true,
		}).Create(&record).Error
		if err != nil {
			return count, errors.Wrapf(err, "upsert payment %d", row.PaymentID)
		}
		count++
	}
	return count, nil
}
