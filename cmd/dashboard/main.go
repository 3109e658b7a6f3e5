package main

import (
	"context"
	"log"
	"net/url"
	"os"

	"github.com/absmach/cleanroom"
	"github.com/absmach/cleanroom/dashboardd"
	"github.com/absmach/supermq/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	envPrefixHTTP = "DCR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	cleanroom.Config
	InstanceID string  `env:"DCR_INSTANCE_ID"`
	OTELURL    url.URL `env:"DCR_OTEL_URL"`
	TraceRatio float64 `env:"DCR_TRACE_RATIO" envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	httpServerConfig := server.Config{Port: dashboardd.DefHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		log.Fatalf("failed to load %s HTTP server configuration : %s", dashboardd.SvcName, err.Error())
	}

	if err := dashboardd.Start(ctx, cancel, dashboardd.Config{
		Config:     cfg.Config,
		InstanceID: cfg.InstanceID,
		Server:     httpServerConfig,
		OTELURL:    cfg.OTELURL,
		TraceRatio: cfg.TraceRatio,
	}); err != nil {
		cancel()
		log.Fatalf("%s service failed: %s", dashboardd.SvcName, err)
	}
	cancel()
}
