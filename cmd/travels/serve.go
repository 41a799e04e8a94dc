package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/agency-travels-service/internal/handler"
	"github.com/maxviazov/agency-travels-service/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, err := openSources(ctx, cfg, appLogger)
		if err != nil {
			return err
		}
		defer src.close()

		agencySvc := service.NewAgencyService(src.agencies, appLogger)
		travelSvc := service.NewTravelService(src.travels, src.agencies, src.pageSize, service.EndRuleByName(cfg.Pagination.EndRule), appLogger)

		if cfg.Logger.Env != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.New()
		r.Use(gin.Recovery())
		handler.Register(r, src.pinger, agencySvc, travelSvc, appLogger)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.App.Port),
			Handler: r,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			appLogger.Info().Str("addr", srv.Addr).Str("source", cfg.App.Source).Msg("🚀 Service started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer cancel()
			appLogger.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}
