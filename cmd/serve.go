package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/asin-match/internal/catalog"
	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		env, err := initEnv("serve")
		if err != nil {
			return err
		}

		srv := server.New(serverRunFunc(env), server.Options{
			DataDir:        cfg.Output.Dir,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Work(gctx)
		})
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// serverRunFunc adapts the pipeline to the server's job interface.
func serverRunFunc(env *matchEnv) server.RunFunc {
	return func(ctx context.Context, job server.Job) (*model.RunSummary, error) {
		rows, err := catalog.Load(job.InputPath, catalogColumns())
		if err != nil {
			return nil, err
		}
		res, err := env.newRunner(job.OutputDir, job.Reporter, job.OnStatus).Run(ctx, rows)
		if err != nil {
			return nil, err
		}
		return &res.Summary, nil
	}
}
