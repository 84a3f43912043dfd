package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"mailctl/internal/config"
	"mailctl/internal/imap"
	"mailctl/internal/logging"
	"mailctl/internal/prompt"
	"mailctl/internal/registry"
	"mailctl/internal/smtp"
)

type mailSender interface {
	Send(ctx context.Context, creds config.Credentials, host string, msg smtp.Message) error
}

type mailbox interface {
	Login(creds config.Credentials, host string) error
	SelectInbox() (uint32, error)
	FetchRecent(ctx context.Context, k int, fn func(seq uint32, raw []byte) error) error
	Close() error
}

// app carries what an action needs at run time.
type app struct {
	cfg    config.Config
	out    io.Writer
	logger *slog.Logger
	prompt *prompt.Prompter

	storage     func() registry.Storage
	sender      mailSender
	newMailbox  func() mailbox
	openBrowser func(path string) error
}

func newApp(cmd *cobra.Command, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Log)
	out := cmd.OutOrStdout()

	return &app{
		cfg:    cfg,
		out:    out,
		logger: logger,
		prompt: prompt.New(cmd.InOrStdin(), out, prompt.Policy{MaxAttempts: cfg.Prompt.MaxAttempts}),
		storage: func() registry.Storage {
			return registry.NewFileStorage(cfg.RegistryPath, logger)
		},
		sender: smtp.NewSender(cfg.SMTP, logger),
		newMailbox: func() mailbox {
			return imap.NewSession(cfg.IMAP, logger)
		},
		openBrowser: browser.OpenFile,
	}, nil
}

// withRegistry opens the registry for the duration of fn.
func (a *app) withRegistry(fn func(*registry.Registry) error) error {
	reg, err := registry.Open(a.storage())
	if err != nil {
		return err
	}
	a.logger.Debug("registry opened", "providers", reg.Names())
	defer func() {
		if err := reg.Close(); err != nil {
			a.logger.Warn("release registry", "error", err)
		}
	}()
	return fn(reg)
}

// lookup resolves the server of the given kind for an email address.
func (a *app) lookup(address string, kind registry.Kind) (string, error) {
	var host string
	err := a.withRegistry(func(reg *registry.Registry) error {
		var err error
		host, err = reg.LookupAddress(address, kind)
		return err
	})
	return host, err
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
