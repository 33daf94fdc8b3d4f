package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/cli"
	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error [%s]:", apperrors.KindOf(err)), err)
		stop()
		os.Exit(1)
	}
}
