package ledger

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Rounding selects how fractional cents round when a directive author
// doesn't give the processor an exact value (spec.md §6, option
// "default_rounding").
type Rounding int

const (
	RoundingHalfUp Rounding = iota
	RoundingUp
	RoundingDown
)

// Config holds the subset of Option directives spec.md §6 declares
// meaningful to the core (title is display-only and simply passed
// through; operating_currency/_precision drive tolerance, and
// default_rounding is exposed for exporters/importers even though
// nothing in this module's processor currently rounds). Grounded on
// the teacher's ledger/config.go Config struct and its context-value
// threading idiom.
type Config struct {
	Title                      string
	OperatingCurrency          string
	OperatingCurrencyPrecision int
	DefaultRounding            Rounding
}

// DefaultConfig matches spec.md §9: precision 2 (tolerance 0.005).
func DefaultConfig() *Config {
	return &Config{OperatingCurrencyPrecision: 2, DefaultRounding: RoundingHalfUp}
}

// Tolerance implements spec.md §9's authoritative comparison rule:
// |a - b| > 0.5 * 10^(-precision).
func (c *Config) Tolerance() decimal.Decimal {
	if c == nil {
		c = DefaultConfig()
	}
	step := decimal.New(1, int32(-c.OperatingCurrencyPrecision))
	return step.Mul(decimal.NewFromFloat(0.5))
}

// configFromOptions builds a Config from a key/value options map
// (Process builds it from the tree's Option directives before any
// directive is processed).
func configFromOptions(options map[string]string) *Config {
	cfg := DefaultConfig()

	if v, ok := options["title"]; ok {
		cfg.Title = v
	}
	if v, ok := options["operating_currency"]; ok {
		cfg.OperatingCurrency = v
	}
	if v, ok := options["operating_currency_precision"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OperatingCurrencyPrecision = n
		}
	}
	if v, ok := options["default_rounding"]; ok {
		switch strings.ToLower(v) {
		case "up":
			cfg.DefaultRounding = RoundingUp
		case "down":
			cfg.DefaultRounding = RoundingDown
		case "round_half_up":
			cfg.DefaultRounding = RoundingHalfUp
		}
	}

	return cfg
}

type configContextKey struct{}

// WithContext attaches c to ctx, matching the teacher's
// Config.WithContext/ConfigFromContext context-value idiom so handlers
// can read configuration without threading an extra parameter through
// every Validate/Apply call.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, configContextKey{}, c)
}

// ConfigFromContext retrieves the Config attached by WithContext,
// falling back to DefaultConfig() when none was attached.
func ConfigFromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configContextKey{}).(*Config); ok {
		return c
	}
	return DefaultConfig()
}
