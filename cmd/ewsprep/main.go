// Command ewsprep turns CDE school climate exports into tidy and composite
// index CSVs.
//
//	ewsprep grade "Safety 2019.txt" --years 2017-2019 --level High
//	ewsprep connectedness connectedness.xlsx --store
//	ewsprep batch data/exports --workers 8
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
