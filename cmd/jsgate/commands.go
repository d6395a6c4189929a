package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robbyt/go-jsgate"
	"github.com/robbyt/go-jsgate/internal/config"
	"github.com/robbyt/go-jsgate/internal/metrics"
	"github.com/robbyt/go-jsgate/internal/server"
)

// errEvaluationFailed makes the process exit non-zero after the error envelope is printed.
var errEvaluationFailed = errors.New("evaluation failed")

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jsgate",
		Short:         "JSON gateway for sandboxed JavaScript evaluation",
		Long:          "Evaluate untrusted JavaScript snippets against a JSON variables object under a hard timeout.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().String("config", "", "Config file (default ./jsgate.yaml or /etc/jsgate/jsgate.yaml)")
	rootCmd.PersistentFlags().String("prelude", "", "Prelude override: inline JavaScript, absolute path, or http(s) URL")

	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one request read from --file or stdin",
		Long: `Evaluate one request of the form {"script": "...", "variables": {...}, "timeout": ms}.
The encoded result or error envelope is written to stdout; failures exit with status 1.`,
		Args: cobra.NoArgs,
		RunE: runEval,
	}
	cmd.Flags().StringP("file", "f", "", "Read the request from this file instead of stdin")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluations over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	return cmd
}

// setup loads the configuration and builds the shared gateway.
func setup(cmd *cobra.Command) (*config.Config, slog.Handler, *jsgate.Gateway, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	handler := cfg.Log.Handler(cmd.ErrOrStderr())

	preludeOverride, _ := cmd.Flags().GetString("prelude")
	gw, err := buildGateway(cfg, handler, preludeOverride)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, handler, gw, nil
}

func runEval(cmd *cobra.Command, _ []string) error {
	_, _, gw, err := setup(cmd)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open request file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	res := gw.Evaluate(contextOf(cmd), raw)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(res.Body)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s", errEvaluationFailed, res.Kind)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, handler, gw, err := setup(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	srv, err := server.New(handler, cfg.Server, gw, metrics.New())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
