package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/tonebank/cmd"
	"github.com/tphakala/tonebank/internal/app"
	"github.com/tphakala/tonebank/internal/buildinfo"
)

// Set at build time with -ldflags
var (
	version   string
	buildDate string
)

func main() {
	ctx := app.NewContext(buildinfo.New(version, buildDate))
	rootCmd := cmd.RootCommand(ctx)

	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := ctx.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
