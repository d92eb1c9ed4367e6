package main

import (
	"context"
	"log/slog"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/restyutil"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "seo-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	proxyfetch.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/proxyfetch"),
	)
}
