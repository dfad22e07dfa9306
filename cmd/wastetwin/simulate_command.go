package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wastetwin/internal/api"
	"wastetwin/internal/catalog"
	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/workflow"
)

const simulateRecheck = 100 * time.Millisecond

type simulateOptions struct {
	items         []string
	seed          int
	maxConcurrent int
	fast          bool
	verbose       bool
	asJSON        bool
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a one-shot simulation in process, without a daemon",
		Example: `  wastetwin simulate --item cables=3 --item laptop
  wastetwin simulate --seed 4 --fast`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, ctx, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.items, "item", nil, "Category to enqueue as category[=quantity] (repeatable)")
	cmd.Flags().IntVar(&opts.seed, "seed", 0, "Enqueue items for this many random categories")
	cmd.Flags().IntVar(&opts.maxConcurrent, "concurrency", 0, "Override engine.max_concurrent")
	cmd.Flags().BoolVar(&opts.fast, "fast", false, "Skip the per-step delay")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Write engine logs using the logging config")
	addJSONFlag(cmd, &opts.asJSON)
	return cmd
}

type itemRequest struct {
	category string
	quantity int
}

func parseItemRequest(value string) (itemRequest, error) {
	category, qty, found := strings.Cut(strings.TrimSpace(value), "=")
	req := itemRequest{category: strings.TrimSpace(category), quantity: 1}
	if req.category == "" {
		return req, fmt.Errorf("invalid item %q: category is required", value)
	}
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return req, fmt.Errorf("invalid item %q: quantity must be an integer", value)
		}
		req.quantity = n
	}
	return req, nil
}

func runSimulation(cmd *cobra.Command, ctx *commandContext, opts simulateOptions) error {
	base, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg := *base
	if opts.fast {
		cfg.Engine.MaxStepDelayMS = 0
	}
	if opts.maxConcurrent > 0 {
		cfg.Engine.MaxConcurrent = opts.maxConcurrent
	}

	requests := make([]itemRequest, 0, len(opts.items))
	for _, value := range opts.items {
		req, err := parseItemRequest(value)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}
	if len(requests) == 0 && opts.seed <= 0 {
		return errors.New("nothing to simulate: pass --item or --seed")
	}

	logger := logging.NewNop()
	if opts.verbose {
		if logger, err = logging.NewFromConfig(&cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	cat, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	hub := events.NewHub(cfg.Events.BufferSize, cfg.Events.SubscriberBuffer)
	defer hub.Close()
	manager, err := workflow.NewManagerFromConfig(&cfg, cat, hub, logger)
	if err != nil {
		return err
	}
	sub := manager.Subscribe(0)
	defer sub.Unsubscribe()

	for _, req := range requests {
		if _, err := manager.Enqueue(req.category, req.quantity); err != nil {
			return fmt.Errorf("enqueue %s: %w", req.category, err)
		}
	}
	if opts.seed > 0 {
		if _, err := manager.Seed(opts.seed); err != nil {
			return fmt.Errorf("seed queue: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	progress := out
	if opts.asJSON {
		progress = io.Discard
	}
	started := time.Now()
	if err := drainSimulation(cmd.Context(), manager, sub, progress); err != nil {
		return err
	}

	stats := api.FromSnapshot(manager.Stats(), manager.MaxConcurrent())
	if opts.asJSON {
		return writeJSON(cmd, stats)
	}
	fmt.Fprintf(out, "\nSimulation finished in %s\n\n", time.Since(started).Round(time.Millisecond))
	renderStats(out, stats, shouldColorize(out))
	return nil
}

// drainSimulation admits queued items whenever capacity frees up and returns
// once the queue and the active set are both empty.
func drainSimulation(ctx context.Context, manager *workflow.Manager, sub *events.Subscription, out io.Writer) error {
	recheck := time.NewTicker(simulateRecheck)
	defer recheck.Stop()

	for {
		for _, item := range manager.ProcessAvailable() {
			fmt.Fprintf(out, "started   %s\n", item.ID)
		}
		if snap := manager.Stats(); snap.QueueLength == 0 && snap.ActiveCount == 0 {
			manager.Wait()
			for {
				select {
				case evt, ok := <-sub.C():
					if !ok {
						return nil
					}
					printOutcome(out, evt)
				default:
					return nil
				}
			}
		}
		select {
		case <-ctx.Done():
			manager.Wait()
			return ctx.Err()
		case evt, ok := <-sub.C():
			if !ok {
				return errors.New("event hub closed")
			}
			printOutcome(out, evt)
		case <-recheck.C:
		}
	}
}

func printOutcome(out io.Writer, evt events.Event) {
	switch evt.Kind {
	case events.KindProcessingCompleted:
		fmt.Fprintf(out, "completed %s\n", evt.ItemID())
	case events.KindProcessingFailed:
		fmt.Fprintf(out, "failed    %s: %s\n", evt.ItemID(), evt.Error)
	}
}
