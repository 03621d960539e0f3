// Command streamtool pipes a model output stream from stdin through the
// extraction/dispatch/splice pipeline and writes the spliced text to stdout.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justinlietz93/streamtool"
	"github.com/justinlietz93/streamtool/builtin"
)

const chunkSize = 4096

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		marker     string
		timeout    time.Duration
		memoryPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "streamtool",
		Short: "Extract, dispatch, and splice tool calls in a streaming model response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := streamtool.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if marker != "" {
				cfg.Marker = marker
			}
			if timeout > 0 {
				cfg.DefaultTimeout = streamtool.Duration(timeout)
			}

			reg := streamtool.NewRegistry(cfg.RegistryOptions()...)
			if verbose {
				reg.Use(streamtool.WithLogging(slog.New(slog.NewTextHandler(os.Stderr, nil))))
			}
			store, err := builtin.RegisterAll(reg, builtin.Options{
				MemoryPath: memoryPath,
				TimeoutFor: cfg.TimeoutFor,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			return run(cmd, reg, cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", "streamtool.yaml", "path to YAML config")
	root.Flags().StringVar(&marker, "marker", "", "structured call marker (overrides config)")
	root.Flags().DurationVar(&timeout, "timeout", 0, "default dispatch timeout (overrides config)")
	root.Flags().StringVar(&memoryPath, "memory", "", "SQLite file for the memory tools")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log tool dispatches to stderr")

	root.AddCommand(newToolsCmd())
	return root
}

func run(cmd *cobra.Command, reg *streamtool.Registry, cfg *streamtool.Config) error {
	st := streamtool.New(reg, cfg.StreamOptions()...)
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			emitted, err := st.Feed(cmd.Context(), string(buf[:n]))
			if err != nil {
				return err
			}
			if _, err := io.WriteString(out, emitted); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	emitted, err := st.Close(cmd.Context())
	if _, werr := io.WriteString(out, emitted); werr != nil {
		return werr
	}
	return err
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the builtin tools and their parameters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := streamtool.NewRegistry()
			store, err := builtin.RegisterAll(reg, builtin.Options{})
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, desc := range reg.Descriptors() {
				fmt.Fprintf(out, "%s - %s\n", desc.Name, desc.Description)
				for _, p := range desc.Params {
					req := ""
					if p.Required {
						req = " (required)"
					}
					fmt.Fprintf(out, "    %s %s%s  %s\n", p.Name, p.Type, req, p.Description)
				}
			}
			return nil
		},
	}
}
