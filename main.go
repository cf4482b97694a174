package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfg        = DefaultConfig()
	configPath string
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tagtree",
	Short: "Edit a nested tree of named tags",
	Long: `tagtree edits a tree of named nodes. Leaves carry text, containers carry
children. Nodes can be collapsed, renamed, given data or new children, and the
tree can be exported without its view state as JSON, YAML or an HTML outline.

Run without arguments to open the sample tree in the terminal editor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			loaded, err := LoadConfigFile(cfg, configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		cfg = ApplyEnv(cfg)
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Full-screen commands stay quiet unless a log file is configured
		quiet := cmd.Name() == "tui" || cmd.Name() == "tagtree" || cmd.Name() == "repl"
		l, err := NewLogger(cfg, quiet)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui [file]",
	Short: "Open the terminal tree editor",
	Long: `Open the terminal tree editor on a tree file (json, yaml or html by
extension) or on the sample tree. With --remote the editor drives the tree held
by a running 'tagtree serve' instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve a tree over a Unix socket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := initialTree(args)
		if err != nil {
			return err
		}
		core := NewTagTreeCore(root, logger)

		watch, _ := cmd.Flags().GetBool("watch")
		if watch && len(args) == 0 {
			return errors.New("--watch needs a tree file")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, core, args, watch)
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell against a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := NewREPLSession(cfg.SocketPath, cfg.Color)
		if err != nil {
			return err
		}
		return session.Run()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Print the trimmed tree",
	Long: `Print a tree file (or the sample tree) without view state. With --remote
the tree of a running server is exported instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, closeFn, err := commandsFor(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		format, err := ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		text, err := cmds.Export(format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("socket", "", "Unix socket path (TAGTREE_SOCKET)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (TAGTREE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file (TAGTREE_LOG_FILE)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Export format: json, yaml, html (TAGTREE_FORMAT)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	tuiCmd.Flags().Bool("remote", false, "Edit the tree of a running server")
	exportCmd.Flags().Bool("remote", false, "Export the tree of a running server")
	serveCmd.Flags().Bool("watch", false, "Reload the tree file when it changes")

	rootCmd.AddCommand(tuiCmd, serveCmd, replCmd, exportCmd)
}

// applyFlags copies explicitly set flags over the config
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("socket") {
		cfg.SocketPath, _ = flags.GetString("socket")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		cfg.Color = false
	}
}

// initialTree loads the file named in args, or the sample tree
func initialTree(args []string) (Node, error) {
	if len(args) == 0 {
		return sampleTree(), nil
	}
	return LoadTreeFile(args[0])
}

// commandsFor returns a local core for args, or a socket client with --remote
func commandsFor(cmd *cobra.Command, args []string) (TagTreeCommands, func(), error) {
	remote, _ := cmd.Flags().GetBool("remote")
	if remote {
		if len(args) > 0 {
			return nil, nil, errors.New("--remote does not take a file")
		}
		client, err := NewSocketClient(cfg.SocketPath)
		if err != nil {
			return nil, nil, err
		}
		return NewSocketClientCommands(client), func() { client.Close() }, nil
	}

	root, err := initialTree(args)
	if err != nil {
		return nil, nil, err
	}
	return NewTagTreeCore(root, logger), func() {}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cmds, closeFn, err := commandsFor(cmd, args)
	if err != nil {
		return err
	}
	defer closeFn()

	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	return RunTUI(cmds, format)
}

// serve runs the socket server, and the file watcher when asked, until ctx
// is cancelled
func serve(ctx context.Context, core *TagTreeCore, args []string, watch bool) error {
	var watcher *TreeWatcher
	if watch {
		w, err := NewTreeWatcher(args[0], core, logger)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		watcher = w
	}

	server := NewSocketServer(cfg.SocketPath, core, logger)
	if err := server.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})

	if watcher != nil {
		logger.Info("watching tree file", zap.String("path", args[0]))
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
