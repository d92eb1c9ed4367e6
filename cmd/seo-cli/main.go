package main

import (
	"context"
	"seoassist-backend/cmd/seo-cli/commands"
	"seoassist-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "seo-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
