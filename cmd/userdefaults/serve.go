package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/userdefaults/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the domain over HTTP (and MCP on stdio with --mcp)",
	Long: `Serve the domain over HTTP on 127.0.0.1:<server.port>.

Every route except /health needs "Authorization: Bearer <token>". The token
comes from USERDEFAULTS_SERVER_TOKEN; when unset a random one is generated
and printed at startup. With --mcp an MCP server also runs on stdin/stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(cmd, withMCP)
	},
}

// maxConns bounds concurrent API connections; every request touches the
// same backend.
const maxConns = 64

func runServer(cmd *cobra.Command, withMCP bool) error {
	fmt.Fprintf(stderr, "userdefaults version %s\n", version)

	s, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(s)

	token := cfg.Server.Token
	if token == "" {
		token = uuid.New().String()
		printStatus("Token", "%s", token)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(api.Deps{Store: s, Token: token, Logger: slog.Default().With("component", "api")}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	ln = netutil.LimitListener(ln, maxConns)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(stderr, "userdefaults serving %s on %s\n", cfg.Domain, addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Store: s, Domain: cfg.Domain})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server error: %w", err)
			}
			return nil
		})
	}

	// Shut the HTTP server down on a signal or when a sibling fails.
	g.Go(func() error {
		<-gCtx.Done()
		fmt.Fprintln(stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP over stdio")
	rootCmd.AddCommand(serveCmd)
}
