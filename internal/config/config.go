package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tutor"
)

const (
	// Mode constants
	ModeDesktop  = "desktop"
	ModeServe    = "serve"
	ModeMCP      = "mcp"
	ModeDiscover = "discover"

	// Default values
	DefaultPort     = 7420
	DefaultHost     = "0.0.0.0"
	DefaultLogLevel = "info"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "STUDYBOARD"
)

// ErrVersionRequested is returned by Load when --version was passed.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for StudyBoard
type Config struct {
	// Run configuration
	Mode      string // "desktop", "serve", "mcp" or "discover"
	Host      string
	Port      int
	Advertise bool

	// Storage
	DataDir  string
	Document string

	// Tutor
	APIKey      string
	ChatModel   string
	ReportModel string

	// Tool defaults
	PenColor         string
	PenWidth         float64
	HighlighterColor string
	HighlighterWidth float64
	EraserWidth      float64

	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	dataDir := ".studyboard"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".studyboard")
	}

	tools := state.DefaultToolSettings()
	return &Config{
		Mode:             ModeDesktop,
		Host:             DefaultHost,
		Port:             DefaultPort,
		Advertise:        true,
		DataDir:          dataDir,
		ChatModel:        tutor.DefaultChatModel,
		ReportModel:      tutor.DefaultReportModel,
		PenColor:         tools.PenColor,
		PenWidth:         tools.PenWidth,
		HighlighterColor: tools.HighlighterColor,
		HighlighterWidth: tools.HighlighterWidth,
		EraserWidth:      tools.EraserWidth,
		Version:          "1.0.0",
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFromFlags parses the process arguments and returns a configuration
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration from defaults, STUDYBOARD_* environment
// variables and args, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	flags := pflag.NewFlagSet("studyboard", pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags)

	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DataDir != "" {
		if expanded, err := filepath.Abs(cfg.DataDir); err == nil {
			cfg.DataDir = expanded
		}
	}
	if cfg.Document == "" && flags.NArg() > 0 {
		cfg.Document = flags.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("advertise", cfg.Advertise)
	v.SetDefault("data", cfg.DataDir)
	v.SetDefault("document", cfg.Document)
	v.SetDefault("apikey", cfg.APIKey)
	v.SetDefault("chatmodel", cfg.ChatModel)
	v.SetDefault("reportmodel", cfg.ReportModel)
	v.SetDefault("pencolor", cfg.PenColor)
	v.SetDefault("penwidth", cfg.PenWidth)
	v.SetDefault("highlightercolor", cfg.HighlighterColor)
	v.SetDefault("highlighterwidth", cfg.HighlighterWidth)
	v.SetDefault("eraserwidth", cfg.EraserWidth)
	v.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Run mode: 'desktop' window, 'serve' remote canvas only, 'mcp' stdio tool server, 'discover' list boards on the LAN")
	flags.String("host", cfg.Host, "Remote canvas host address")
	flags.Int("port", cfg.Port, "Remote canvas port")
	flags.Bool("advertise", cfg.Advertise, "Announce the remote canvas over mDNS")
	flags.String("data", cfg.DataDir, "Directory holding the note store")
	flags.String("document", cfg.Document, "PDF file or page image directory to open")
	flags.String("apikey", cfg.APIKey, "Gemini API key (tutor disabled when empty)")
	flags.String("chatmodel", cfg.ChatModel, "Model used for chat and region explanations")
	flags.String("reportmodel", cfg.ReportModel, "Model used for session reports")
	flags.String("pencolor", cfg.PenColor, "Default pen color")
	flags.Float64("penwidth", cfg.PenWidth, "Default pen width")
	flags.String("highlightercolor", cfg.HighlighterColor, "Default highlighter color")
	flags.Float64("highlighterwidth", cfg.HighlighterWidth, "Default highlighter width")
	flags.Float64("eraserwidth", cfg.EraserWidth, "Default eraser width")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nStudyBoard - annotate lecture PDFs and study them with an AI tutor\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s lecture.pdf                       # desktop window\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=serve --port=7420 slides/  # tablet pen over the LAN\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=mcp                        # tools for an assistant\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=discover                   # find boards on the network\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  STUDYBOARD_MODE      Run mode\n")
		fmt.Fprintf(os.Stderr, "  STUDYBOARD_PORT      Remote canvas port\n")
		fmt.Fprintf(os.Stderr, "  STUDYBOARD_DATA      Note store directory\n")
		fmt.Fprintf(os.Stderr, "  STUDYBOARD_APIKEY    Gemini API key (or GEMINI_API_KEY)\n")
		fmt.Fprintf(os.Stderr, "  STUDYBOARD_LOGLEVEL  Log level\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Advertise = v.GetBool("advertise")
	cfg.DataDir = v.GetString("data")
	cfg.Document = v.GetString("document")
	cfg.APIKey = v.GetString("apikey")
	cfg.ChatModel = v.GetString("chatmodel")
	cfg.ReportModel = v.GetString("reportmodel")
	cfg.PenColor = v.GetString("pencolor")
	cfg.PenWidth = v.GetFloat64("penwidth")
	cfg.HighlighterColor = v.GetString("highlightercolor")
	cfg.HighlighterWidth = v.GetFloat64("highlighterwidth")
	cfg.EraserWidth = v.GetFloat64("eraserwidth")
	cfg.LogLevel = v.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDesktop, ModeServe, ModeMCP, ModeDiscover:
	default:
		return fmt.Errorf("invalid mode: %s (must be one of: desktop, serve, mcp, discover)", c.Mode)
	}

	if (c.Mode == ModeDesktop || c.Mode == ModeServe) && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}
	if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create data directory %s: %w", c.DataDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access data directory %s: %w", c.DataDir, err)
	}

	if c.PenWidth <= 0 || c.HighlighterWidth <= 0 || c.EraserWidth <= 0 {
		return errors.New("tool widths must be positive")
	}
	for name, color := range map[string]string{"pen": c.PenColor, "highlighter": c.HighlighterColor} {
		if !render.ValidColor(color) {
			return fmt.Errorf("invalid %s color: %q", name, color)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ToolSettings returns the configured tool defaults.
func (c *Config) ToolSettings() state.ToolSettings {
	return state.ToolSettings{
		PenColor:         c.PenColor,
		PenWidth:         c.PenWidth,
		HighlighterColor: c.HighlighterColor,
		HighlighterWidth: c.HighlighterWidth,
		EraserWidth:      c.EraserWidth,
	}
}

// Address returns the remote canvas address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsMCP reports whether stdout belongs to the MCP protocol.
func (c *Config) IsMCP() bool {
	return c.Mode == ModeMCP
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DataDir: %s, Document: %s, Tutor: %t, LogLevel: %s}",
		c.Mode, c.Host, c.Port, c.DataDir, c.Document, c.APIKey != "", c.LogLevel)
}
