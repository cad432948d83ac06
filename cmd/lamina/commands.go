package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Start the HTTP API:

  GET  /health   liveness probe
  POST /agent    dispatch an AgentRequest
  GET  /agents   list registered agents`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			srv := server.New(a.lamina, a.lamina, func(o *server.Options) { o.Logger = a.logger.WithComponent("server") })

			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func newDispatchCmd(flags *rootFlags) *cobra.Command {
	var contextPairs []string

	cmd := &cobra.Command{
		Use:   "dispatch <request>",
		Short: "Dispatch a single request and print the response as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			reqCtx, err := parseContext(contextPairs)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			resp, err := a.lamina.Dispatch(cmd.Context(), core.NewAgentRequest(strings.Join(args, " "), reqCtx))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "request context entry as key=value (repeatable)")

	return cmd
}

func newAgentsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			types := a.lamina.Agents()
			for _, info := range a.lamina.Describe() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-18s %s\n", info.Name, types[info.Name], info.Description)
			}

			return nil
		},
	}
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (API keys masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()

			return enc.Encode(cfg.Redacted())
		},
	}
}

func parseContext(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid context entry %q, want key=value", p)
		}
		out[k] = v
	}

	return out, nil
}
