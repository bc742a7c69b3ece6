package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dialogix/dialogix/config"
	"github.com/dialogix/dialogix/internal/adminapi"
	"github.com/dialogix/dialogix/internal/app"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/internal/whatsapp"
	"github.com/dialogix/dialogix/internal/wppconnect"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema, exit")
)

var version = "dev"

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		return
	}
	if *showVer {
		fmt.Println("dialogix", version)
		return
	}

	appConfig := config.LoadConfig(*conffile)
	gapp := app.NewApplication(appConfig)
	gapp.Init(appConfig)
	defer gapp.Release()

	if *initdb {
		gapp.InitDb()
		zap.L().Info("database initialized")
		return
	}

	// the provider client follows runtime settings, rebuilt per operation
	waService := whatsapp.NewService(gapp.DB(), gapp.Bus(), func() *wppconnect.Client {
		return wppconnect.NewClient(wppconnect.Config{
			BaseURL:    gapp.GetSettingsStringValue("wppconnect", "base_url"),
			Token:      gapp.GetSettingsStringValue("wppconnect", "token"),
			TokenFile:  gapp.GetSettingsStringValue("wppconnect", "token_file"),
			WebhookURL: gapp.GetSettingsStringValue("wppconnect", "webhook_url"),
		})
	})
	whatsapp.SetDefault(waService)
	gapp.RegisterTask("session_heartbeat", waService.RunHeartbeatSweep)

	adminapi.Init()
	server := webserver.Init(gapp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gapp.StartBackgroundJobs(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}
