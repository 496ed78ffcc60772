package main

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/fakeldap/internal/config"
	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
	"github.com/KilimcininKorOglu/fakeldap/internal/server"
)

// shutdownTimeout bounds how long serve waits for open connections on exit.
const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LDAP server",
		Long:  "Start the LDAP server and serve until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				addr, err := withPort(cfg.Server.Address, port)
				if err != nil {
					return err
				}
				cfg.Server.Address = addr
			}
			return serve(cmd.Context(), cfg, nil)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "listen port (overrides config)")

	return cmd
}

// withPort replaces the port of a host:port address.
func withPort(addr string, port int) (string, error) {
	if port < 0 || port > 65535 {
		return "", errorx.IllegalArgument.New("invalid port %d", port)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", errorx.IllegalArgument.Wrap(err, "invalid address %q", addr)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// serve runs the server until ctx is canceled. ready, when not nil, receives
// the server once it is listening.
func serve(ctx context.Context, cfg *config.Config, ready func(*server.Server)) error {
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer logger.Sync()

	store := passwd.NewStore(cfg.Directory.RecordFile, logger)
	if err := store.Init(); err != nil {
		return err
	}

	dir := directory.NewService(store, logger)
	if _, err := dir.Refresh(ctx); err != nil {
		return err
	}

	srv := server.New(cfg.Server, dir, logger)
	if err := srv.Start(ctx); err != nil {
		return errorx.ExternalError.Wrap(err, "failed to listen on %s", cfg.Server.Address)
	}

	logger.Info("fakeldap started",
		"address", srv.Addr().String(),
		"record_file", store.Path(),
		"version", version)

	if ready != nil {
		ready(srv)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err.Error())
		return err
	}
	return nil
}
