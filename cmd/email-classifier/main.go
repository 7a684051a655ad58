package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-email-classifier/internal/adapters/filter"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/credential"
	"github.com/mikey/llm-email-classifier/internal/di"
	"github.com/mikey/llm-email-classifier/internal/factory"
	"github.com/mikey/llm-email-classifier/internal/mailparse"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const usage = `Usage: email-classifier <command> [flags]

Commands:
  classify     Classify a message read from -file, stdin, or -subject/-body
  fetch        Fetch recent messages over IMAP and optionally classify them
  categories   List the candidate categories

Run "email-classifier <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "classify":
		err = runClassify(ctx, os.Args[2:])
	case "fetch":
		err = runFetch(ctx, os.Args[2:])
	case "categories":
		err = runCategories(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if connErr, ok := core.AsConnectionError(err); ok {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", connErr.Hint())
		}
		os.Exit(1)
	}
}

func runClassify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	flags := di.RegisterFlags(fs)
	subject := fs.String("subject", "", "Email subject")
	body := fs.String("body", "", "Email body text (skips message parsing)")
	inputFile := fs.String("file", "", "RFC 5322 message file (use stdin if not specified)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	email, err := readEmail(*subject, *body, *inputFile)
	if err != nil {
		return err
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return withLogger(container, func(logger *zap.Logger) error {
		defer shutdown(container, logger)

		return container.Invoke(func(filters *factory.FilterFactory) error {
			_, err := filters.CreateCliFilter(os.Stdout, flags.Verbose).ProcessEmail(ctx, email)
			return err
		})
	})
}

// readEmail builds the email to classify from flags, a file or stdin.
func readEmail(subject, body, path string) (*core.ExtractedEmail, error) {
	if body != "" {
		return &core.ExtractedEmail{
			Subject:  subject,
			Body:     core.Preview(body, core.PreviewLength),
			BodyFull: body,
		}, nil
	}

	var r io.Reader = os.Stdin
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg, err := mailparse.Parse(raw)
	if err != nil {
		return nil, err
	}

	text := mailparse.Extract(msg)
	email := &core.ExtractedEmail{
		Subject:  msg.Subject(),
		Sender:   msg.From(),
		Date:     msg.Date(),
		Body:     core.Preview(text, core.PreviewLength),
		BodyFull: text,
	}
	if subject != "" {
		email.Subject = subject
	}
	return email, nil
}

func runFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	flags := di.RegisterFlags(fs)
	count := fs.Int("count", 5, "Number of recent messages to fetch (1-20)")
	folder := fs.String("folder", "", "Mailbox folder (default from config, INBOX)")
	classify := fs.Bool("classify", false, "Classify each fetched message")
	savePassword := fs.Bool("save-password", false, "Store the mailbox password in the system keyring")
	if err := fs.Parse(args); err != nil {
		return err
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return withLogger(container, func(logger *zap.Logger) error {
		var emails []core.ExtractedEmail
		err := container.Invoke(func(sessions *factory.SessionFactory, resolver *credential.Resolver) error {
			account, err := sessions.Account()
			if err != nil {
				return err
			}

			if *savePassword {
				if err := resolver.Save(account.Username, account.Password); err != nil {
					return fmt.Errorf("failed to save password: %w", err)
				}
				fmt.Printf("Saved password for %s to the system keyring\n", account.Username)
			}

			if *folder == "" {
				*folder = account.Folder
			}
			emails, err = sessions.NewFetcher(account).FetchRecent(ctx, *folder, *count)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Printf("Fetched %d messages from %s\n", len(emails), *folder)
		if !*classify {
			cli := filter.NewCliFilter(nil, logger, os.Stdout, flags.Verbose)
			for i := range emails {
				cli.RenderSummary(&emails[i])
			}
			return nil
		}

		defer shutdown(container, logger)
		return container.Invoke(func(filters *factory.FilterFactory) error {
			cli := filters.CreateCliFilter(os.Stdout, flags.Verbose)
			for i := range emails {
				if _, err := cli.ProcessEmail(ctx, &emails[i]); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func runCategories(args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	flags := di.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return withLogger(container, func(logger *zap.Logger) error {
		defer shutdown(container, logger)

		return container.Invoke(func(filters *factory.FilterFactory) {
			filters.CreateCliFilter(os.Stdout, flags.Verbose).RenderCategories()
		})
	})
}

// withLogger runs fn with the container's logger and flushes it afterwards.
func withLogger(container *dig.Container, fn func(logger *zap.Logger) error) error {
	var runErr error
	err := container.Invoke(func(logger *zap.Logger) {
		defer logger.Sync()
		runErr = fn(logger)
	})
	if err != nil {
		return err
	}
	return runErr
}

func shutdown(container *dig.Container, logger *zap.Logger) {
	if err := di.Shutdown(container); err != nil {
		logger.Debug("Shutdown skipped", zap.Error(err))
	}
}
