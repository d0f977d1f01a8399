package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g. KEYDIFF_ORIG_INDEX.
const EnvPrefix = "KEYDIFF"

// Supported output formats.
var Formats = []string{"text", "json", "arrow", "parquet"}

// Supported input types.
var InputTypes = []string{"auto", "csv", "tsv", "arrow", "parquet"}

// --- Configuration Structs ---

// Options holds every recognised setting of a comparison run.
type Options struct {
	OrigIndex   int    `mapstructure:"orig_index" yaml:"orig_index"`
	DiffIndex   int    `mapstructure:"diff_index" yaml:"diff_index"` // -1 means unset
	WithPrefix  string `mapstructure:"with_prefix" yaml:"with_prefix"`
	WithHeaders bool   `mapstructure:"with_headers" yaml:"with_headers"`

	OrigType   string `mapstructure:"orig_type" yaml:"orig_type"`
	DiffType   string `mapstructure:"diff_type" yaml:"diff_type"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	Comment    string `mapstructure:"comment" yaml:"comment"`
	LazyQuotes bool   `mapstructure:"lazy_quotes" yaml:"lazy_quotes"`

	KeyDelimiter string `mapstructure:"key_delimiter" yaml:"key_delimiter"`

	Format        string `mapstructure:"format" yaml:"format"`
	Output        string `mapstructure:"output" yaml:"output"`
	Report        string `mapstructure:"report" yaml:"report"`
	ShowUnchanged bool   `mapstructure:"show_unchanged" yaml:"show_unchanged"`
	Color         string `mapstructure:"color" yaml:"color"`
	Confirm       bool   `mapstructure:"confirm" yaml:"confirm"`
	FailOnDiff    bool   `mapstructure:"fail_on_diff" yaml:"fail_on_diff"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// ServerOptions configures the HTTP API.
type ServerOptions struct {
	Port        string `mapstructure:"port" yaml:"port"`
	Prefork     bool   `mapstructure:"prefork" yaml:"prefork"`
	BodyLimitMB int    `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
}

// --- Defaults ---

// SetDefaults registers the default of every option on v. Registering all
// keys also lets environment variables override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("orig_index", 0)
	v.SetDefault("diff_index", -1)
	v.SetDefault("with_prefix", "")
	v.SetDefault("with_headers", false)
	v.SetDefault("orig_type", "auto")
	v.SetDefault("diff_type", "auto")
	v.SetDefault("delimiter", ",")
	v.SetDefault("comment", "")
	v.SetDefault("lazy_quotes", false)
	v.SetDefault("key_delimiter", "")
	v.SetDefault("format", "text")
	v.SetDefault("output", "")
	v.SetDefault("report", "")
	v.SetDefault("show_unchanged", false)
	v.SetDefault("color", "auto")
	v.SetDefault("confirm", false)
	v.SetDefault("fail_on_diff", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.prefork", false)
	v.SetDefault("server.body_limit_mb", 64)
}

// --- Load Configuration ---

// Load resolves options from defaults, an optional YAML file at configPath,
// KEYDIFF_* environment variables and any flags already bound to v.
func Load(v *viper.Viper, configPath string) (*Options, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &opts, nil
}

// LoadServer resolves the "server" section. Keys are read one by one so that
// defaults fill whatever the file leaves out.
func LoadServer(v *viper.Viper) *ServerOptions {
	opts := &ServerOptions{
		Port:        v.GetString("server.port"),
		Prefork:     v.GetBool("server.prefork"),
		BodyLimitMB: v.GetInt("server.body_limit_mb"),
	}
	if opts.Port == "" {
		opts.Port = "3000"
	}
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 64
	}
	return opts
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks option ranges and enumerations.
func (o *Options) Validate() error {
	if err := validate(o.OrigIndex >= 0, "orig index must be non-negative, got %d", o.OrigIndex); err != nil {
		return err
	}
	if err := validate(o.DiffIndex >= -1, "diff index must be non-negative, got %d", o.DiffIndex); err != nil {
		return err
	}
	if err := validate(utf8.RuneCountInString(o.Delimiter) == 1, "delimiter must be a single character, got %q", o.Delimiter); err != nil {
		return err
	}
	if err := validate(o.Delimiter != "\"" && o.Delimiter != "\n" && o.Delimiter != "\r", "invalid delimiter %q", o.Delimiter); err != nil {
		return err
	}
	if err := validate(utf8.RuneCountInString(o.Comment) <= 1, "comment must be a single character, got %q", o.Comment); err != nil {
		return err
	}
	if err := validate(o.Comment == "" || o.Comment != o.Delimiter, "comment and delimiter must differ"); err != nil {
		return err
	}
	if err := validate(contains(Formats, o.Format), "unsupported output format %q (want one of %s)", o.Format, strings.Join(Formats, ", ")); err != nil {
		return err
	}
	if err := validate(o.Format == "text" || o.Format == "json" || o.Output != "", "format %q requires an output path", o.Format); err != nil {
		return err
	}
	if err := validate(contains(InputTypes, o.OrigType), "unsupported orig type %q", o.OrigType); err != nil {
		return err
	}
	if err := validate(contains(InputTypes, o.DiffType), "unsupported diff type %q", o.DiffType); err != nil {
		return err
	}
	return validate(o.Color == "auto" || o.Color == "always" || o.Color == "never", "color must be auto, always or never, got %q", o.Color)
}

// --- Derived Values ---

// DiffIndexOrDefault returns the diff key column, falling back to OrigIndex
// when unset.
func (o *Options) DiffIndexOrDefault() int {
	if o.DiffIndex == -1 {
		return o.OrigIndex
	}
	return o.DiffIndex
}

// DelimiterRune returns the field separator.
func (o *Options) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(o.Delimiter)
	return r
}

// CommentRune returns the comment marker, or zero when unset.
func (o *Options) CommentRune() rune {
	if o.Comment == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(o.Comment)
	return r
}

// CoreOptions converts the settings consumed by the comparison engine.
func (o *Options) CoreOptions() core.Options {
	diffIndex := o.DiffIndexOrDefault()
	opts := core.Options{
		OrigIndex:    o.OrigIndex,
		DiffIndex:    &diffIndex,
		KeyDelimiter: o.KeyDelimiter,
	}
	if o.WithPrefix != "" {
		prefix := o.WithPrefix
		opts.Prefix = &prefix
	}
	return opts
}

// ReaderConfig returns the reader configuration for one input.
func (o *Options) ReaderConfig(side core.Side, path string) core.ReaderConfig {
	typ := o.OrigType
	if side == core.Diff {
		typ = o.DiffType
	}
	return core.ReaderConfig{
		Type:        typ,
		Path:        path,
		Side:        side,
		WithHeaders: o.WithHeaders,
		Delimiter:   o.DelimiterRune(),
		Comment:     o.CommentRune(),
		LazyQuotes:  o.LazyQuotes,
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
