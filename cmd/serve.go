package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/locator-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server and/or REST API exposing locator-cli",
	Long: `Start a Model Context Protocol (MCP) server that exposes capture, resolve
and healing operations as tools, optionally alongside a REST API.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)
  none              REST API only (requires --http)

Examples:
  locator-cli serve
  locator-cli serve --transport streamable-http --port 8080
  locator-cli serve --transport none --http :8090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http, none")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().String("http", "", "Serve the REST API on this address (e.g. :8090)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	httpAddr, _ := cmd.Flags().GetString("http")
	if transport == "none" && httpAddr == "" {
		return fmt.Errorf("--transport none needs --http")
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(svc)
	g, ctx := errgroup.WithContext(cmd.Context())
	if httpAddr != "" {
		g.Go(func() error { return srv.ListenAndServe(ctx, httpAddr) })
	}
	if transport != "none" {
		g.Go(func() error {
			log.Info().Str("transport", transport).Msg("starting MCP server")
			return srv.Serve(server.Config{Transport: transport, Port: port})
		})
	}
	return g.Wait()
}
