package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hire-labor/internal/server"
	"github.com/spigell/hire-labor/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve searches over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().Bool("watch", false, "refresh the registry when the workers file changes")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("store.watch", serveCmd.Flags().Lookup("watch"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := bootstrap(ctx, "")
	defer d.Close()

	// Start with the whole registry on display.
	d.orchestrator.Clear()

	httpServer := &http.Server{
		Addr:              d.config.Server.Addr,
		Handler:           server.NewServer(d.orchestrator, d.logger.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if w := newWatcher(d); w != nil {
		g.Go(func() error {
			return w.Run(gCtx)
		})
	}

	if err := g.Wait(); err != nil {
		d.logger.Fatal("serving", zap.Error(err))
	}

	d.logger.Info("stopped")
}

// newWatcher returns nil unless the file store is used with watching enabled.
func newWatcher(d *deps) *store.Watcher {
	if !d.config.Store.Watch {
		return nil
	}
	if d.config.Store.Driver != driverFile {
		d.logger.Warn("store.watch is ignored", zap.String("reason", "only the file store can be watched"))
		return nil
	}

	return &store.Watcher{
		Path:     d.config.Store.Path,
		OnChange: d.orchestrator.Refresh,
		Logger:   d.logger.Named("watcher"),
	}
}
