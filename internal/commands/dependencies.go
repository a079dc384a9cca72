package commands

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/choicemate/internal/api"
	"github.com/diogo/choicemate/internal/config"
	"github.com/diogo/choicemate/internal/history"
	"github.com/diogo/choicemate/internal/render"
	"github.com/diogo/choicemate/internal/session"
	"github.com/diogo/choicemate/internal/storage"
	"github.com/diogo/choicemate/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	Run(ctx context.Context, deps tui.Deps) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) Run(ctx context.Context, deps tui.Deps) error {
	return tui.Run(ctx, deps)
}

// Dependencies holds the external dependencies for the commands.
// Fields left nil are built on first use from the loaded configuration,
// so tests can inject any of them.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// Client is the decision backend client.
	Client api.ClientInterface

	// Store holds conversations; Service drives them through the questionnaire.
	Store   *history.Store
	Service *session.Service

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Copy writes text to the system clipboard.
	Copy func(string) error

	// IsTTY reports whether stdout is a terminal; Width is its width.
	IsTTY func() bool
	Width func() int

	// Verbose is bound to the --verbose flag.
	Verbose bool

	kv        storage.KV
	ownLogger bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:   &DefaultTUI{},
		Copy:  clipboard.WriteAll,
		IsTTY: isStdoutTTY,
		Width: getTerminalWidth,
	}
}

// defaults fills in the production implementations left nil
func (d *Dependencies) defaults() {
	if d.TUI == nil {
		d.TUI = &DefaultTUI{}
	}
	if d.Copy == nil {
		d.Copy = clipboard.WriteAll
	}
	if d.IsTTY == nil {
		d.IsTTY = isStdoutTTY
	}
	if d.Width == nil {
		d.Width = getTerminalWidth
	}
}

// setup loads the configuration and builds the logger. Interactive runs log
// to a file so the TUI screen stays clean.
func (d *Dependencies) setup(interactive bool) error {
	d.defaults()

	if d.Config == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		d.Config = &cfg
	}

	if d.Logger == nil {
		logger, err := newLogger(d.Verbose || d.Config.Verbose, interactive)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		d.Logger = logger
		d.ownLogger = true
	}

	if d.Config.TUITheme != "" && !render.SetTUITheme(d.Config.TUITheme) {
		d.Logger.Warn("unknown tui theme, keeping default", zap.String("theme", d.Config.TUITheme))
	}
	tui.UpdateTheme()
	return nil
}

// newLogger builds a production zap logger. Only warnings are shown unless
// verbose is set.
func newLogger(verbose, toFile bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if toFile {
		if _, err := config.EnsureConfigDir(); err != nil {
			return nil, err
		}
		path, err := config.GetLogPath()
		if err != nil {
			return nil, err
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}

	return cfg.Build()
}

// store opens the configured storage backend on first use
func (d *Dependencies) store() (*history.Store, error) {
	if d.Store != nil {
		return d.Store, nil
	}
	kv, err := storage.Open(*d.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	d.kv = kv
	d.Store = history.NewStore(kv)
	return d.Store, nil
}

// client creates the backend client on first use
func (d *Dependencies) client() (api.ClientInterface, error) {
	if d.Client != nil {
		return d.Client, nil
	}
	c, err := api.NewClient(d.Config.BaseURL(),
		api.WithTimeout(d.Config.Timeout()),
		api.WithLogger(d.Logger),
	)
	if err != nil {
		return nil, err
	}
	d.Client = c
	return c, nil
}

// service wires the client and store into a session service on first use
func (d *Dependencies) service() (*session.Service, error) {
	if d.Service != nil {
		return d.Service, nil
	}
	client, err := d.client()
	if err != nil {
		return nil, err
	}
	store, err := d.store()
	if err != nil {
		return nil, err
	}
	d.Service = session.New(client, store,
		session.WithLogger(d.Logger),
		session.WithExplainStyle(d.Config.ExplainStyle()),
	)
	return d.Service, nil
}

// renderOptions returns markdown options sized to the terminal
func (d *Dependencies) renderOptions() render.Options {
	return render.OptionsFromConfig(d.Config.Markdown).WithWidth(d.Width())
}

// Close flushes the logger and releases the storage backend
func (d *Dependencies) Close() error {
	if d.Logger != nil && d.ownLogger {
		_ = d.Logger.Sync()
	}
	if d.kv != nil {
		err := d.kv.Close()
		d.kv = nil
		return err
	}
	return nil
}
