package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/noah-isme/degree-pathway-api/internal/app"
	"github.com/noah-isme/degree-pathway-api/internal/cli"
	"github.com/noah-isme/degree-pathway-api/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(cli.Deps{LoadConfig: config.Load, Build: app.Build}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
