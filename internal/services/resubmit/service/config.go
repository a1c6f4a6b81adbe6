package service

import (
	"context"
	"strings"

	"issuebridge/internal/platform/net/http/bind"
	str "issuebridge/internal/platform/strings"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/resubmit/domain"
)

// ConfigNamespace holds the single notification configuration record
var ConfigNamespace = kv.Namespace{Name: "issue-tracker-resubmit-notification"}

const configKey = "config"

// ConfigStore persists the notification addresses
type ConfigStore struct {
	recs     kv.Store[domain.Configuration]
	defaults []string
}

// NewConfigStore returns a store over b; defaults apply until a configuration is saved
func NewConfigStore(b kv.Backend, defaults []string) *ConfigStore {
	return &ConfigStore{recs: kv.New[domain.Configuration](b, ConfigNamespace), defaults: defaults}
}

// Get returns the saved configuration or the defaults
func (s *ConfigStore) Get(ctx context.Context) (domain.Configuration, error) {
	cfg, ok, err := s.recs.GetOptional(ctx, configKey)
	if err != nil {
		return domain.Configuration{}, err
	}
	if !ok {
		return domain.Configuration{Addresses: append([]string{}, s.defaults...)}, nil
	}
	if cfg.Addresses == nil {
		cfg.Addresses = []string{}
	}
	return cfg, nil
}

// Set validates and saves cfg; addresses are trimmed and deduplicated case-insensitively
func (s *ConfigStore) Set(ctx context.Context, cfg domain.Configuration) error {
	cfg.Addresses = dedupe(str.Compact(cfg.Addresses))
	if err := bind.Validate(cfg); err != nil {
		return err
	}
	return s.recs.Put(ctx, configKey, cfg)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		k := strings.ToLower(a)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}
