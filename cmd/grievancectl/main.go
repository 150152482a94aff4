// Command grievancectl runs maintenance tasks against the configured store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"grievancedesk/internal/bootstrap"
	"grievancedesk/internal/config"
	"grievancedesk/internal/service"
)

func main() {
	if err := newRootCmd(openOperator).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openOperator connects to the store named by the environment.
func openOperator(ctx context.Context) (service.OperatorService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = stores.Close(context.Background()) }
	return service.NewOperatorService(stores.Users, stores.Departments), closeFn, nil
}
