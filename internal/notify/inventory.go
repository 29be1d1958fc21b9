package notify

import (
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/guonaihong/gout"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/domain"
)

// InventoryClient posts product changes to the inventory-sync collaborator.
// Calls are best-effort: failures are logged, never retried, never surfaced
// to the operation that triggered them.
type InventoryClient struct {
	url     string
	timeout time.Duration
	pool    *ants.Pool
}

func NewInventoryClient(cfg config.InventoryConfig, pool *ants.Pool) *InventoryClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InventoryClient{url: cfg.SyncURL, timeout: timeout, pool: pool}
}

// Subscribe wires the client onto the product change topic. The actual HTTP
// call runs on the worker pool, off the request path.
func (c *InventoryClient) Subscribe(bus EventBus.Bus) error {
	return bus.Subscribe(domain.TopicProductChanged, c.onProductChanged)
}

func (c *InventoryClient) onProductChanged(productID int64) {
	if c.url == "" {
		return
	}
	task := func() {
		if err := c.Sync(productID); err != nil {
			zap.L().Warn("inventory sync failed",
				zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	if c.pool == nil {
		task()
		return
	}
	if err := c.pool.Submit(task); err != nil {
		zap.L().Warn("inventory sync submit failed",
			zap.Int64("product_id", productID), zap.Error(err))
	}
}

// Sync performs one synchronous inventory-sync call with payload {product_id}.
func (c *InventoryClient) Sync(productID int64) error {
	var code int
	err := gout.POST(c.url).
		SetTimeout(c.timeout).
		SetJSON(gout.H{"product_id": productID}).
		Code(&code).
		Do()
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return errors.Errorf("inventory sync returned status %d", code)
	}
	return nil
}
