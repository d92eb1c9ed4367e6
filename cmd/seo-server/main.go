package main

import (
	"flag"
	"seoassist-backend/lib/configutil"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	Suggest  SuggestConfig  `json:"suggest"`
	Research ResearchConfig `json:"research"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", handleHealth)

	fetcher := proxyfetch.NewFetcher(proxyfetch.DefaultConfig())

	suggestService, err := InitSuggest(router, cfg.Suggest, fetcher)
	if err != nil {
		serviceutil.Fatal("init suggest", err)
	}
	err = InitResearch(router, cfg.Research, fetcher, suggestService)
	if err != nil {
		serviceutil.Fatal("init research", err)
	}

	go serviceutil.StartHttpServer(8000, router)
	<-ctx.Done()
}
