// internal/cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"nutrilog/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server",
	Long: `Serve starts the HTTP MCP server exposing the logging tools
(log_meal, log_workout, daily_summary, ...) until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host address to bind (env NUTRILOG_ADDR)")
	serveCmd.Flags().IntVar(&servePort, "port", 8011, "Port for the HTTP server (env NUTRILOG_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	host, port, err := serveAddress()
	if err != nil {
		return err
	}

	config := &server.Config{
		Host:         host,
		Port:         port,
		DBPath:       databasePath(),
		AdvisorURL:   os.Getenv("NUTRILOG_ADVISOR_URL"),
		AdvisorKey:   os.Getenv("NUTRILOG_ADVISOR_KEY"),
		AdvisorModel: os.Getenv("NUTRILOG_ADVISOR_MODEL"),
	}

	srv, err := server.NewNutrilogServer(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	cancel()
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// serveAddress resolves the bind address: flags beat NUTRILOG_ADDR beats the
// defaults.
func serveAddress() (string, int, error) {
	host, port := serveHost, servePort
	addr := os.Getenv("NUTRILOG_ADDR")
	if addr != "" && !serveCmd.Flags().Changed("host") && !serveCmd.Flags().Changed("port") {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return "", 0, fmt.Errorf("invalid NUTRILOG_ADDR %q: %w", addr, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid NUTRILOG_ADDR port %q: %w", p, err)
		}
		host, port = h, n
	}
	return host, port, nil
}
