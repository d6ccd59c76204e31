// Package config loads buildlens.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"buildlens/internal/correlate"
	"buildlens/internal/diag"
	"buildlens/internal/diagfmt"
	"buildlens/internal/fix"
	"buildlens/internal/report"
	"buildlens/internal/source"
)

// FileName is the configuration file searched for from the working directory upward.
const FileName = "buildlens.toml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config mirrors the sections of buildlens.toml.
type Config struct {
	Parse       Parse       `toml:"parse"`
	Correlate   Correlate   `toml:"correlate"`
	Remediation Remediation `toml:"remediation"`
	Report      Report      `toml:"report"`
	Run         Run         `toml:"run"`

	// Path is the file the configuration was read from; empty for defaults.
	Path string `toml:"-"`
}

type Parse struct {
	// StripPrefixes are extra regular expressions removed from log paths.
	StripPrefixes []string `toml:"strip_prefixes"`
}

type Correlate struct {
	ProximityWindow int `toml:"proximity_window"`
}

type Remediation struct {
	Enabled    bool `toml:"enabled"`
	Lookaround int  `toml:"lookaround"`
	// Categories limits automatic fixes; empty means every supported category.
	Categories     []string `toml:"categories"`
	RequireExcerpt bool     `toml:"require_excerpt"`
	ExcludeDirs    []string `toml:"exclude_dirs"`
}

type Report struct {
	Title   string   `toml:"title"`
	Formats []string `toml:"formats"`
	Timings bool     `toml:"timings"`
}

type Run struct {
	// Jobs bounds parallelism; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	formats := make([]string, 0, len(diagfmt.AllFormats()))
	for _, f := range diagfmt.AllFormats() {
		formats = append(formats, f.String())
	}
	return Config{
		Correlate: Correlate{ProximityWindow: correlate.DefaultWindow},
		Remediation: Remediation{
			Enabled:     true,
			Lookaround:  fix.DefaultLookaround,
			ExcludeDirs: append([]string(nil), source.DefaultExcludeDirs...),
		},
		Report: Report{Title: report.DefaultTitle, Formats: formats},
	}
}

// Load reads path over Default. Keys absent from the file keep their default
// value; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	if meta.IsDefined("report", "formats") && len(cfg.Report.Formats) == 0 {
		return Config{}, fmt.Errorf("%s: %w: [report].formats is empty", path, ErrInvalid)
	}
	if meta.IsDefined("report", "title") && strings.TrimSpace(cfg.Report.Title) == "" {
		cfg.Report.Title = report.DefaultTitle
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from startDir to locate buildlens.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve loads explicit when set, otherwise the nearest buildlens.toml above
// startDir, otherwise Default.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	if c.Correlate.ProximityWindow < 0 {
		errs = append(errs, fmt.Errorf("[correlate].proximity_window must not be negative, got %d", c.Correlate.ProximityWindow))
	}
	if c.Remediation.Lookaround < 0 {
		errs = append(errs, fmt.Errorf("[remediation].lookaround must not be negative, got %d", c.Remediation.Lookaround))
	}
	if c.Run.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[run].jobs must not be negative, got %d", c.Run.Jobs))
	}
	if _, err := c.Categories(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Formats(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Normalizer(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Categories parses [remediation].categories. Nil means every supported one.
func (c Config) Categories() ([]diag.Category, error) {
	if len(c.Remediation.Categories) == 0 {
		return nil, nil
	}
	out := make([]diag.Category, 0, len(c.Remediation.Categories))
	for _, name := range c.Remediation.Categories {
		cat, ok := diag.ParseCategory(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("[remediation].categories: unknown category %q", name)
		}
		if !fix.Supported(cat) {
			return nil, fmt.Errorf("[remediation].categories: %w: %s", diag.ErrUnsupportedCategory, cat)
		}
		out = append(out, cat)
	}
	return out, nil
}

// Formats parses [report].formats.
func (c Config) Formats() ([]diagfmt.Format, error) {
	out, err := diagfmt.ParseFormats(c.Report.Formats)
	if err != nil {
		return nil, fmt.Errorf("[report].formats: %w", err)
	}
	return out, nil
}

// Normalizer compiles the default path prefixes plus [parse].strip_prefixes.
func (c Config) Normalizer() (*source.PathNormalizer, error) {
	n, err := source.NewPathNormalizer(c.Parse.StripPrefixes)
	if err != nil {
		return nil, fmt.Errorf("[parse].strip_prefixes: %w", err)
	}
	return n, nil
}
