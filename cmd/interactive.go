package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	promptClear   = ":clear"
	promptRefresh = ":refresh"
	promptQuit    = ":quit"
)

var errExit = errors.New("exit requested")

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Search workers in a prompt loop",
	Long: fmt.Sprintf("Search workers in a prompt loop. Type a query, %s to show everyone, %s to reload the registry or %s to leave.",
		promptClear, promptRefresh, promptQuit),
	Run: func(cmd *cobra.Command, _ []string) {
		interactive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func interactive(cmd *cobra.Command) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := bootstrap(ctx, "stderr")
	defer d.Close()

	if w := newWatcher(d); w != nil {
		go func() {
			if err := w.Run(ctx); err != nil {
				d.logger.Warn("file watcher stopped", zap.Error(err))
			}
		}()
	}

	prompt := promptui.Prompt{
		Label: "Search",
	}

	// Show everyone first, like an empty search box.
	d.orchestrator.Clear()

	for {
		if err := d.orchestrator.Wait(ctx); err != nil {
			return
		}
		if err := printState(cmd.OutOrStdout(), d.orchestrator.State(), outputTable); err != nil {
			d.logger.Fatal("printing results", zap.Error(err))
		}

		input, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			d.logger.Fatal("reading a query", zap.Error(err))
		}

		if err := handleInput(ctx, d, input); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			d.logger.Warn("command failed", zap.Error(err))
		}
	}
}

func handleInput(ctx context.Context, d *deps, input string) error {
	switch strings.TrimSpace(input) {
	case promptQuit:
		d.logger.Info("exiting", zap.String("reason", "quit requested"))
		return errExit
	case promptClear:
		d.orchestrator.Clear()
		return nil
	case promptRefresh:
		if err := d.orchestrator.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		d.logger.Info("registry refreshed", zap.Int("workers", d.cache.Current().Len()))
		return nil
	default:
		d.orchestrator.Search(input)
		return nil
	}
}
