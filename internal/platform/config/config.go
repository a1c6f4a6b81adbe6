// Package config reads typed settings from prefixed environment variables
package config

import (
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"issuebridge/internal/platform/logger"
)

// Conf is a namespaced view over the environment, e.g. New().Prefix("RESUBMIT_")
type Conf struct{ prefix string }

// New returns the root Conf
func New() Conf { return Conf{} }

// Prefix returns a child Conf with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// must returns the parsed value of a required key, panicking through the logger on failure
func must[T any](c Conf, k, kind string, parse func(string) (T, error)) T {
	s := c.lookup(k)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Panic().Err(err).Str("key", c.key(k)).Str("value", s).Msgf("invalid %s value", kind)
	}
	return v
}

// may returns the parsed value of an optional key, or def when unset or malformed
func may[T any](c Conf, k, kind string, def T, parse func(string) (T, error)) T {
	s := c.lookup(k)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(k)).Str("value", s).Interface("default", def).
			Msgf("invalid %s; using default", kind)
		return def
	}
	return v
}

func ident(s string) (string, error) { return s, nil }

func absURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: s, Err: os.ErrInvalid}
	}
	return u, nil
}

// MustString panics when key is unset
func (c Conf) MustString(key string) string { return must(c, key, "string", ident) }

// MustInt panics when key is unset or not an int
func (c Conf) MustInt(key string) int { return must(c, key, "int", strconv.Atoi) }

// MustBool panics when key is unset or not a bool
func (c Conf) MustBool(key string) bool { return must(c, key, "bool", strconv.ParseBool) }

// MustDuration panics when key is unset or not a duration such as 250ms or 2s
func (c Conf) MustDuration(key string) time.Duration {
	return must(c, key, "duration", time.ParseDuration)
}

// MustURL panics when key is unset or not an absolute URL
func (c Conf) MustURL(key string) *url.URL { return must(c, key, "absolute URL", absURL) }

// MustPort returns a listen addr like ":4000", panicking outside 1..65535
func (c Conf) MustPort(key string) string {
	p := c.MustInt(key)
	if p < 1 || p > 65535 {
		logger.Get().Panic().Str("key", c.key(key)).Int("value", p).Msg("invalid TCP port; expected 1..65535")
	}
	return ":" + strconv.Itoa(p)
}

// Require panics on the first unset key
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.lookup(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string { return may(c, key, "string", def, ident) }

// MayInt returns the value or def, warning when malformed
func (c Conf) MayInt(key string, def int) int { return may(c, key, "int", def, strconv.Atoi) }

// MayFloat64 returns the value or def, warning when malformed
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, "float64", def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns the value or def, warning when malformed
func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, "bool", def, strconv.ParseBool)
}

// MayDuration returns the value or def, warning when malformed
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, "duration", def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEmails is MayCSV with every entry checked as an address; malformed entries are dropped with a warning
func (c Conf) MayEmails(key string) []string {
	var out []string
	for _, a := range c.MayCSV(key, nil) {
		if _, err := mail.ParseAddress(a); err != nil {
			logger.Get().Warn().Str("key", c.key(key)).Str("value", a).Msg("invalid email address; skipping")
			continue
		}
		out = append(out, a)
	}
	return out
}

// MayEnum returns the value when it is one of allowed (case-insensitive), def when unset; panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
