package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/catalog"
	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/notify"
	"github.com/ecistack/ecommerce/internal/payment"
	"github.com/ecistack/ecommerce/internal/store"
	"github.com/ecistack/ecommerce/pkg/metrics"
)

// SideEffectPoolSize bounds the workers running best-effort outbound calls.
const SideEffectPoolSize = 8

type Application struct {
	appConfig  *config.AppConfig
	gormDB     *gorm.DB
	bus        EventBus.Bus
	pool       *ants.Pool
	products   *catalog.ProductService
	payments   *payment.Service
	aggregator *payment.Aggregator
	dispatcher *notify.Dispatcher
	inventory  *notify.InventoryClient
	sched      *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ DBProvider     = (*Application)(nil)
	_ ConfigProvider = (*Application)(nil)
	_ AppContext     = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.wireServices()
}

func (a *Application) Products() *catalog.ProductService {
	return a.products
}

func (a *Application) Payments() *payment.Service {
	return a.payments
}

func (a *Application) Aggregator() *payment.Aggregator {
	return a.aggregator
}

func (a *Application) Dispatcher() *notify.Dispatcher {
	return a.dispatcher
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg)

	cfg.InitDirs()
	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB, err = store.NewDatabase(cfg)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	go func() {
		time.Sleep(3 * time.Second)
		a.checkProducts()
	}()

	a.wireServices()
	a.initJob()
	return nil
}

func (a *Application) initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.GetLogDir() + "/" + cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

// wireServices builds the event bus, worker pool, repositories, services and
// outbound subscribers on top of the current DB handle.
func (a *Application) wireServices() {
	a.bus = EventBus.New()
	if a.pool == nil {
		pool, err := ants.NewPool(SideEffectPoolSize, ants.WithNonblocking(true))
		if err != nil {
			zap.L().Error("side effect pool init failed", zap.Error(err))
		} else {
			a.pool = pool
		}
	}

	productRepo := catalog.NewGormProductRepository(a.gormDB)
	paymentRepo := payment.NewGormPaymentRepository(a.gormDB)

	a.products = catalog.NewProductService(productRepo, a.bus)
	a.payments = payment.NewService(paymentRepo, payment.NewRandomGateway(), a.bus)
	a.aggregator = payment.NewAggregator(paymentRepo)

	a.inventory = notify.NewInventoryClient(a.appConfig.Inventory, a.pool)
	if err := a.inventory.Subscribe(a.bus); err != nil {
		zap.L().Error("inventory subscribe failed", zap.Error(err))
	}
	a.dispatcher = notify.NewDispatcher(a.appConfig.Notify, a.gormDB, a.pool)
	if err := a.dispatcher.Subscribe(a.bus); err != nil {
		zap.L().Error("notify subscribe failed", zap.Error(err))
	}
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
