package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"seoassist-backend/lib/configutil"
	"seoassist-backend/lib/fetchcache"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/lib/sqliteutil"
	"seoassist-backend/lib/textgen"
	"seoassist-backend/services/research"
	"seoassist-backend/services/research/db"
	"seoassist-backend/services/suggest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seo-cli",
	Short: "seo-cli runs keyword research from the terminal.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type SuggestConfig struct {
	CacheDatabase string `json:"cache_database"`
	CacheTtlHours int    `json:"cache_ttl_hours"`
}

type ResearchConfig struct {
	Database string               `json:"database"`
	Ai       textgen.Config       `json:"ai"`
	Smtp     research.EmailConfig `json:"smtp"`
}

type Config struct {
	Suggest  SuggestConfig  `json:"suggest"`
	Research ResearchConfig `json:"research"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	return cfg
}

func newSuggest(cfg SuggestConfig, fetcher *proxyfetch.Fetcher) suggest.Service {
	var cache *fetchcache.Cache
	if cfg.CacheDatabase != "" {
		ttl := time.Hour * 6
		if cfg.CacheTtlHours > 0 {
			ttl = time.Hour * time.Duration(cfg.CacheTtlHours)
		}
		opened, err := fetchcache.Open(cfg.CacheDatabase, ttl)
		if err != nil {
			serviceutil.Fatal("open suggest cache", err)
		}
		cache = &opened
	}
	return suggest.NewService(suggest.Options{
		Fetcher: fetcher,
		Cache:   cache,
	})
}

func newResearch(cfg Config) research.Service {
	database, err := sqliteutil.OpenDB(db.Schema, cfg.Research.Database)
	if err != nil {
		serviceutil.Fatal("open report database", err)
	}

	fetcher := proxyfetch.NewFetcher(proxyfetch.DefaultConfig())
	return research.NewService(database, research.Options{
		Suggest: newSuggest(cfg.Suggest, fetcher),
		Fetcher: fetcher,
		Ai:      textgen.NewClient(cfg.Research.Ai),
		Email:   cfg.Research.Smtp,
	})
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
