// Command hyponcloud logs into the Hypontech cloud once and prints the
// account overview, its plants, the inverters of the first plant and the
// administrator account.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyponcloud/hyponcloud/pkg/hypon"
	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/levenlabs/go-lflag"
)

func main() {
	c := hypon.Configured()

	// parse flags
	lflag.Configure()
	log.ConfigureFromLLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Stdout, c)
	if cerr := c.Close(); cerr != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to close client", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n✗ %v\n%s\n", err, hint(err))
		os.Exit(1)
	}
}

// hint tells the user what to do about err.
func hint(err error) string {
	switch {
	case errors.Is(err, hypon.ErrAuthentication):
		return "Please check your username and password"
	case errors.Is(err, hypon.ErrRateLimit):
		return "Please wait a few moments and try again"
	case errors.Is(err, hypon.ErrRequest):
		return "Please check your internet connection"
	default:
		return "Unexpected error"
	}
}

func run(ctx context.Context, w io.Writer, c *hypon.Client) error {
	fmt.Fprintln(w, "Connecting to Hypontech Cloud...")
	if err := c.Connect(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Successfully connected and authenticated")

	overview, err := c.GetOverview(ctx)
	if err != nil {
		return err
	}
	printOverview(w, overview)

	plants, err := c.GetPlants(ctx)
	if err != nil {
		return err
	}
	printPlants(w, plants)

	if len(plants) > 0 {
		first := plants[0]
		fmt.Fprintf(w, "\nFetching inverters for plant: %s...\n", first.PlantName)
		inverters, err := c.GetInverters(ctx, first.PlantID)
		if err != nil {
			return err
		}
		printInverters(w, inverters)
	}

	admin, err := c.GetAdminInfo(ctx)
	if err != nil {
		return err
	}
	printAdmin(w, admin)
	return nil
}
