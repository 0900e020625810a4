// Command tablenerd is a conversational agent for inspecting and
// transforming a CSV-loaded table through a fixed set of safe,
// validated operations selected by a language model.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tablenerd/internal/agent"
	"tablenerd/internal/config"
	"tablenerd/internal/logging"
	"tablenerd/internal/perception"
	"tablenerd/internal/store"
	"tablenerd/internal/table"
)

var (
	configPath  string
	csvPath     string
	mappingPath string
	outputPath  string
	workspace   string
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tablenerd",
	Short: "tablenerd - conversational table manipulation agent",
	Long: `tablenerd binds a CSV table (and optionally a mapping lookup table)
to a language-model planner that can only act through a fixed set of
validated inspection and transformation tools.

Run without arguments to start the interactive chat session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Resolve a single query and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := buildAgent()
		if err != nil {
			return err
		}
		defer cleanup()

		answer, err := a.Run(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return saveOutput(a)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "tablenerd.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "path to the primary CSV file (required)")
	rootCmd.PersistentFlags().StringVar(&mappingPath, "mapping-csv", "", "path to an optional mapping CSV for enrichment joins")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", "", "write the transformed table to this CSV on exit")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", ".", "workspace directory for logs and session data")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	_ = rootCmd.MarkPersistentFlagRequired("csv")
	rootCmd.AddCommand(runCmd)
}

// buildAgent wires config, logging, tables, LLM client and the optional
// transcript store into a ready agent. The returned cleanup closes
// whatever was opened.
func buildAgent() (*agent.Agent, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(workspace, logging.Settings{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, nil, err
	}

	primary, err := table.ReadCSV(csvPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded primary table",
		zap.String("path", csvPath),
		zap.Int("rows", primary.NumRows()),
		zap.Int("columns", primary.NumColumns()))

	opts := []agent.Option{agent.WithMaxIterations(cfg.Agent.MaxIterations)}
	if mappingPath != "" {
		mapping, err := table.ReadCSV(mappingPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("loaded mapping table",
			zap.String("path", mappingPath),
			zap.Int("rows", mapping.NumRows()))
		opts = append(opts, agent.WithMapping(mapping))
	}

	cleanup := func() {}
	if cfg.Session.Enabled {
		transcript, err := store.Open(filepath.Join(workspace, cfg.Session.DBPath))
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = transcript.Close() }
		opts = append(opts, agent.WithTranscript(transcript))
	}

	clientConfig := perception.ClientConfig{
		Provider:    perception.Provider(cfg.LLM.Provider),
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLMTimeout(),
	}
	if clientConfig.APIKey == "" {
		detected, err := perception.DetectProvider()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		clientConfig.Provider = detected.Provider
		clientConfig.APIKey = detected.APIKey
	}

	factory := perception.NewFactory()
	llm, err := factory.Client(clientConfig)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	a, err := agent.New(llm, primary, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

// runInteractive reads one query per line and prints the agent's final
// answer, until EOF or an exit command.
func runInteractive(ctx context.Context) error {
	a, cleanup, err := buildAgent()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("tablenerd ready. Type a request, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("User: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		answer, err := a.Run(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println("Agent:", answer)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return saveOutput(a)
}

// saveOutput writes the (possibly transformed) primary table when the
// user asked for an output file.
func saveOutput(a *agent.Agent) error {
	if outputPath == "" {
		return nil
	}
	if err := table.WriteCSV(a.Primary(), outputPath); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	logger.Info("saved transformed table", zap.String("path", outputPath))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
