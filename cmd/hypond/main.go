// Command hypond polls a Hypontech cloud account, stores what it sees and
// serves it over HTTP along with Prometheus metrics.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hyponcloud/hyponcloud/pkg/hypon"
	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/monitor"
	"github.com/hyponcloud/hyponcloud/pkg/server"
	"github.com/hyponcloud/hyponcloud/pkg/storage"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	c := hypon.Configured()
	s := storage.Configured()
	m := monitor.Configured(c, s)

	// init server
	srv := server.Configured(m, s)

	// parse flags
	lflag.Configure()
	log.ConfigureFromLLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()
	defer func() {
		if err := m.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close monitor", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Run(ctx)
	}()

	// Run will block until context is canceled or error happens
	err := srv.Run(ctx)
	cancel()
	wg.Wait()
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
