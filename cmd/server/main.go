package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/bootstrap"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	var dataDir string
	pflag.StringVar(&cfgPath, "config", cfgPath, "path to the config file")
	pflag.StringVar(&dataDir, "data-dir", "", "directory holding the reservation files (overrides data.dir)")
	pflag.Parse()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	logs := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logs)
	if err != nil {
		log.Fatalf("open reservation data: %v", err)
	}
	defer app.Close()

	if err := bootstrap.Run(ctx, cfg, app, logs); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
