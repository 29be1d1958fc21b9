package app

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/internal/domain"
)

// checkProducts seeds a handful of demo catalogue rows on an empty store so a
// fresh install has something to list.
func (a *Application) checkProducts() {
	var count int64
	if err := a.gormDB.Model(&domain.Product{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	widgets, services := "widgets", "services"
	defaultProducts := []domain.Product{
		{Sku: "ECI-WIDGET-01", Name: "demo-widget-basic", Category: &widgets, Price: decimal.NewFromFloat(9.99), IsActive: true},
		{Sku: "ECI-WIDGET-02", Name: "demo-widget-pro", Category: &widgets, Price: decimal.NewFromFloat(24.5), IsActive: true},
		{Sku: "ECI-SVC-01", Name: "demo-service-annual", Category: &services, Price: decimal.NewFromFloat(199.0), IsActive: true},
		{Sku: "ECI-ADDON-01", Name: "demo-addon-support", Category: &services, Price: decimal.NewFromFloat(49.95), IsActive: true},
	}

	for _, p := range defaultProducts {
		if err := a.gormDB.Create(&p).Error; err != nil {
			zap.L().Error("failed to create default product", zap.String("sku", p.Sku), zap.Error(err))
		} else {
			zap.L().Info("initialized default product", zap.String("sku", p.Sku), zap.String("name", p.Name))
		}
	}
}
