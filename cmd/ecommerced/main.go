package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/app"
	"github.com/ecistack/ecommerce/internal/importer"
	"github.com/ecistack/ecommerce/internal/webapi"
)

var (
	h              = flag.Bool("h", false, "help usage")
	showVer        = flag.Bool("v", false, "show version")
	conffile       = flag.String("c", "", "config yaml file")
	initdb         = flag.Bool("initdb", false, "drop and initialize database")
	importProducts = flag.String("import-products", "", "import products csv file and exit")
	importPayments = flag.String("import-payments", "", "import payments csv file and exit")
)

var (
	BuildVersion string
	ReleaseDate  string
)

func printVersion() {
	fmt.Printf("ecommerced %s (%s)\n", BuildVersion, ReleaseDate)
}

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		os.Exit(0)
	}
	if *showVer {
		printVersion()
		os.Exit(0)
	}

	appConfig := config.LoadConfig(*conffile)
	server := app.NewApplication(appConfig)
	if err := server.Init(appConfig); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %s\n", err)
		os.Exit(1)
	}
	defer server.Release()

	if *initdb {
		server.InitDb()
		zap.L().Info("database initialized")
		return
	}

	if *importProducts != "" {
		n, err := importer.ImportProducts(server.DB(), *importProducts)
		if err != nil {
			zap.L().Fatal("product import failed", zap.Error(err))
		}
		zap.L().Info("product import done", zap.Int("rows", n))
		return
	}
	if *importPayments != "" {
		n, err := importer.ImportPayments(server.DB(), *importPayments)
		if err != nil {
			zap.L().Fatal("payment import failed", zap.Error(err))
		}
		zap.L().Info("payment import done", zap.Int("rows", n))
		return
	}

	web := webapi.NewWebServer(appConfig, server.Products(), server.Payments(), server.Aggregator())

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(web.Start)
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			zap.L().Info("shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return web.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
	}
}
