package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spta/internal/repositories"
	"github.com/desertthunder/spta/internal/services"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	configPath string
	config     *shared.Config
	httpClient *http.Client
	baseURL    string
	tokens     services.TokenFetcher
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	attended   func() bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	ConfigPath string
	Config     *shared.Config // skips loading ConfigPath when set
	HTTPClient *http.Client
	BaseURL    string               // API origin override
	Tokens     services.TokenFetcher // bearer token source override
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
	Attended   func() bool // reports whether a user is at the terminal
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.ConfigPath == "" {
		opts.ConfigPath = shared.DefaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Attended == nil {
		opts.Attended = userAttended
	}

	return &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		baseURL:    opts.BaseURL,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
		attended:   opts.Attended,
	}
}

// userAttended reports whether both stdin and stdout are terminals.
func userAttended() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		importCommand, searchCommand, libraryCommand, historyCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := shared.ParseLogLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	return ctx, nil
}

// loadConfig returns the configuration, creating a default file on first use.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, created, err := shared.LoadOrInitConfig(r.configPath)
	if err != nil {
		return nil, err
	}
	if created {
		r.logger.Info("created default config", "path", r.configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// client builds a catalog client from the configuration. The user token must be set.
func (r *Runner) client() (*services.Client, *shared.Config, error) {
	config, err := r.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := config.RequireUserToken(r.configPath); err != nil {
		return nil, nil, err
	}

	cfg := services.DefaultConfig(config.AppleMusicUserToken)
	if config.MaxRetries > 0 {
		cfg.MaxRetries = config.MaxRetries
	}
	if interval := config.RetryInterval(); interval > 0 {
		cfg.RetryInterval = interval
	}
	cfg.RequestsPerSecond = config.RequestsPerSecond

	client := services.NewClient(cfg,
		services.WithHTTPClient(r.httpClient),
		services.WithBaseURL(r.baseURL),
		services.WithTokenFetcher(r.tokens),
		services.WithLogger(shared.WithLogger(r.logger, "component", "applemusic")),
	)
	return client, config, nil
}

// openJournal opens the import journal named by the --db flag or the databasePath setting.
// A nil repository means no journal is configured.
func (r *Runner) openJournal(cmd *cli.Command) (*repositories.ImportRepository, *sql.DB, error) {
	path := cmd.String("db")
	if path == "" {
		config, err := r.loadConfig()
		if err != nil {
			return nil, nil, err
		}
		path = config.DatabasePath
	}
	if path == "" {
		return nil, nil, nil
	}

	db, err := shared.OpenJournal(path)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("opened import journal", "path", path)
	return repositories.NewImportRepository(db), db, nil
}

// parseLocale validates an optional BCP 47 search locale and returns its canonical form.
func parseLocale(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: locale %q: %v", shared.ErrInvalidFlag, s, err)
	}
	return tag.String(), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// maskToken hides all but the last four characters of a credential.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
