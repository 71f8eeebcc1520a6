package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/paranote/internal"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/storage"
	"github.com/starford/paranote/internal/ui"
	pkgconfig "github.com/starford/paranote/pkg/config"
)

// env is the per-invocation state shared by the note commands.
type env struct {
	cfg    *internal.Config
	logger *slog.Logger
	ui     *ui.Printer
	json   bool
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	root := cmd.Root()
	return &env{
		cfg:    cfg,
		logger: internal.NewLogger(root.ErrWriter, cfg.App.LogLevel),
		ui:     ui.New(root.Writer, root.ErrWriter, cmd.Bool("no-color")),
		json:   cmd.Bool("json"),
	}, nil
}

// service returns a note service for arg and arg's path relative to the
// service root. Paths inside the vault are served from the vault.
func (e *env) service(arg string) (*noteservice.Service, string, error) {
	if arg == "" {
		arg = e.cfg.Vault.Path
	}
	target, err := internal.Resolve(e.cfg.Vault.Path, arg)
	if err != nil {
		return nil, "", err
	}
	store, err := storage.NewFS(target.Root)
	if err != nil {
		return nil, "", err
	}
	svc, err := internal.NewNoteService(e.cfg, store, e.logger, nil)
	if err != nil {
		return nil, "", err
	}
	return svc, target.Rel, nil
}

// vaultService is like service but rejects paths outside the vault, for
// commands that depend on the PARA folder layout.
func (e *env) vaultService(arg string) (*noteservice.Service, string, error) {
	svc, rel, err := e.service(arg)
	if err != nil {
		return nil, "", err
	}
	vault, err := internal.Resolve(e.cfg.Vault.Path, e.cfg.Vault.Path)
	if err != nil {
		return nil, "", err
	}
	if svc.Store().Root() != vault.Root {
		return nil, "", fmt.Errorf("%s is outside the vault %s", arg, vault.Root)
	}
	return svc, rel, nil
}

func (e *env) pattern(cmd *cli.Command) string {
	if p := cmd.String("pattern"); p != "" {
		return p
	}
	return e.cfg.Vault.Pattern
}
