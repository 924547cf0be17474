package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/infra/logger"
	"github.com/kilianp07/roadsim/infra/nominatim"
)

var resolveDelay time.Duration

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Address book related commands",
}

var addressesResolveCmd = &cobra.Command{
	Use:   "resolve <in.json> <out.json>",
	Short: "Geocode the unresolved addresses of a seed file",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddressesResolve,
}

func init() {
	addressesResolveCmd.Flags().DurationVar(&resolveDelay, "delay", time.Second, "pause between geocoding requests")
	addressesCmd.AddCommand(addressesResolveCmd)
	rootCmd.AddCommand(addressesCmd)
}

func runAddressesResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	book := address.NewBook(nil)
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	err = book.Load(in)
	_ = in.Close()
	if err != nil {
		return err
	}

	log := logger.New("addresses")
	resolver := nominatim.New(cfg.Geocoding)
	resolved, failed := resolveBook(cmd, book, resolver, log)

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := book.Save(out); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, failed %d, total %d\n", resolved, failed, book.Len())
	return err
}

func resolveBook(cmd *cobra.Command, book *address.Book, r address.Resolver, log logger.Logger) (resolved, failed int) {
	ctx := cmd.Context()
	first := true
	for _, a := range book.Addresses() {
		if a.Resolved() {
			continue
		}
		if !first && resolveDelay > 0 {
			select {
			case <-ctx.Done():
				return resolved, failed
			case <-time.After(resolveDelay):
			}
		}
		first = false
		err := a.Resolve(ctx, r)
		switch {
		case err == nil:
			resolved++
		case errors.Is(err, address.ErrLocationNotFound):
			log.Warnf("%s: no location found", a)
			failed++
		default:
			log.Errorf("%v", err)
			failed++
		}
	}
	return resolved, failed
}
