package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrNoPassword is returned when no source yields a password.
var ErrNoPassword = errors.New("no mailbox password configured")

// Prompter asks the user for a secret
type Prompter interface {
	Prompt(label string) (string, error)
}

// TerminalPrompter reads a secret from the controlling terminal without
// echoing it
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter prompts on stderr and reads from stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Prompt reads one line. When stdin is not a terminal the line is read
// as-is so passwords can be piped in.
func (p *TerminalPrompter) Prompt(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)

	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Resolver finds the mailbox password for an account: the configured value
// first, then the keyring, then an interactive prompt.
type Resolver struct {
	store    Store
	prompter Prompter
	logger   *zap.Logger
}

// NewResolver creates a resolver. store and prompter may be nil to disable
// that source.
func NewResolver(store Store, prompter Prompter, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:    store,
		prompter: prompter,
		logger:   logger,
	}
}

// Resolve returns the password for username.
func (r *Resolver) Resolve(username, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if r.store != nil && username != "" {
		secret, err := r.store.Get(username)
		if err == nil && secret != "" {
			r.logger.Debug("Loaded mailbox password from keyring", zap.String("username", username))
			return secret, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Warn("Failed to read keyring", zap.Error(err))
		}
	}

	if r.prompter != nil {
		secret, err := r.prompter.Prompt(fmt.Sprintf("App password for %s", username))
		if err != nil {
			return "", err
		}
		if secret != "" {
			return secret, nil
		}
	}

	return "", ErrNoPassword
}

// Save stores the password for username in the keyring.
func (r *Resolver) Save(username, password string) error {
	if r.store == nil {
		return errors.New("keyring is disabled")
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	return r.store.Set(username, password)
}
