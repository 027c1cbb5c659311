package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-agent/internal/contact"
	"github.com/sells-group/lead-agent/internal/conversation"
	"github.com/sells-group/lead-agent/internal/enrich"
	"github.com/sells-group/lead-agent/internal/pipeline"
	"github.com/sells-group/lead-agent/internal/queue"
	"github.com/sells-group/lead-agent/internal/server"
	"github.com/sells-group/lead-agent/pkg/clearbit"
	"github.com/sells-group/lead-agent/pkg/ipapi"
	"github.com/sells-group/lead-agent/pkg/notion"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead webhook server and Telegram event loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		store := notion.NewStore(cfg.Notion.Token, cfg.Notion.LeadDB)
		tg := telegram.NewClient(cfg.Telegram.BotToken)
		adminID := cfg.Telegram.AdminChatID

		var ip ipapi.Client
		if cfg.Enrich.GeoEnabled {
			ip = ipapi.NewClient()
		}
		var company clearbit.Client
		if cfg.Enrich.ClearbitKey != "" {
			company = clearbit.NewClient(cfg.Enrich.ClearbitKey)
		}
		enricher := enrich.New(ip, company)

		selector := contact.New(tg, adminID)
		groupQueue := queue.New(tg, store, adminID,
			queue.WithPollInterval(time.Duration(cfg.Queue.PollIntervalSecs)*time.Second),
		)
		router := conversation.New(tg, adminID)
		processor := pipeline.New(store, enricher, selector,
			pipeline.WithQueue(groupQueue),
		)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port()),
			Handler: server.New(processor, groupQueue, router, zap.L()).Router(),
		}

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting telegram event loop")
			err := telegram.NewListener(tg, zap.L()).Run(ctx, router.HandleUpdate)
			if err == context.Canceled {
				return nil
			}
			return err
		})

		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port()))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		return g.Wait()
	},
}

func port() int {
	if servePort != 0 {
		return servePort
	}
	return cfg.Server.Port
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
