package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/credential"
	"github.com/mikey/llm-email-classifier/internal/factory"
	"github.com/mikey/llm-email-classifier/internal/logging"
)

// CLIFlags contains the command line flags shared by every CLI subcommand
type CLIFlags struct {
	ConfigFile string
	Provider   string
	Verbose    bool
	JSONLog    bool
	NoKeyring  bool
}

// RegisterFlags defines the shared flags on fs
func RegisterFlags(fs *flag.FlagSet) *CLIFlags {
	flags := &CLIFlags{}

	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: search the standard locations)")
	fs.StringVar(&flags.Provider, "provider", "", "Classifier provider (huggingface, openai, gemini, bedrock)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output and logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.BoolVar(&flags.NoKeyring, "no-keyring", false, "Do not read or store the mailbox password in the system keyring")

	return flags
}

// BuildCLIContainer creates the dependency injection container for the CLI
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return loadCLIConfig(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideClassification(container); err != nil {
		return nil, err
	}

	// Register terminal renderer
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register credential resolver
	if err := container.Provide(func(flags *CLIFlags, cfg *config.Config, logger *zap.Logger) *credential.Resolver {
		return newResolver(flags, cfg, logger)
	}); err != nil {
		return nil, err
	}

	// Register mailbox session factory
	if err := container.Provide(factory.NewSessionFactory); err != nil {
		return nil, err
	}

	return container, nil
}

func loadCLIConfig(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}

	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	if flags.Provider != "" {
		cfg.Set("classifier.provider", flags.Provider)
	}
	if flags.NoKeyring {
		cfg.Set("imap.use_keyring", false)
	}

	return cfg, nil
}

func newResolver(flags *CLIFlags, cfg *config.Config, logger *zap.Logger) *credential.Resolver {
	var store credential.Store
	if cfg.GetBool("imap.use_keyring") && !flags.NoKeyring {
		store = credential.NewKeyring()
	}
	return credential.NewResolver(store, credential.NewTerminalPrompter(), logger)
}
