// Package catalog loads the repositories and tracker instances served by this deployment from YAML
package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/net/http/bind"
	"issuebridge/internal/services/tracking/domain"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout
type File struct {
	BaseURL      string              `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	Repositories []domain.Repository `yaml:"repositories" json:"repositories" validate:"dive"`
	Trackers     []Tracker           `yaml:"trackers" json:"trackers" validate:"dive"`
}

// Tracker is one tracker instance entry
type Tracker struct {
	Name         string                    `yaml:"name" json:"name" validate:"required,max=64"`
	Kind         string                    `yaml:"kind" json:"kind" validate:"required"`
	URL          string                    `yaml:"url" json:"url" validate:"required,url"`
	Username     string                    `yaml:"username" json:"username"`
	TokenEnv     string                    `yaml:"token_env" json:"token_env"`
	Repositories []string                  `yaml:"repositories" json:"repositories" validate:"min=1,dive,required"`
	KeyPattern   string                    `yaml:"key_pattern" json:"key_pattern"`
	KeyGroup     int                       `yaml:"key_group" json:"key_group" validate:"min=0"`
	Comments     bool                      `yaml:"comments" json:"comments"`
	StateChanges domain.StateChangeToggles `yaml:"state_changes" json:"state_changes"`
	Keywords     map[string]string         `yaml:"keywords" json:"keywords"`
	Templates    string                    `yaml:"templates" json:"templates"`
	RatePerSec   float64                   `yaml:"rate_per_sec" json:"rate_per_sec" validate:"min=0"`
	Burst        int                       `yaml:"burst" json:"burst" validate:"min=0"`
}

// Catalog answers repository lookups and yields the tracker specs
type Catalog struct {
	baseURL string
	repos   map[string]domain.Repository
	specs   []domain.TrackerSpec
}

var _ domain.Repositories = (*Catalog)(nil)

// Load reads and parses the file at path
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read catalog %s", path)
	}
	return Parse(b, os.Getenv)
}

// Parse decodes a catalog; getenv resolves token_env entries
func Parse(data []byte, getenv func(string) string) (*Catalog, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode catalog")
	}
	return New(f, getenv)
}

// New validates f and indexes it
func New(f File, getenv func(string) string) (*Catalog, error) {
	if err := bind.Validate(f); err != nil {
		return nil, err
	}
	c := &Catalog{
		baseURL: strings.TrimRight(f.BaseURL, "/"),
		repos:   make(map[string]domain.Repository, len(f.Repositories)),
	}
	for _, r := range f.Repositories {
		if r.ID == "" {
			return nil, perr.WithField(perr.InvalidArgf("repository without id"), "id")
		}
		if _, dup := c.repos[r.ID]; dup {
			return nil, perr.WithField(perr.InvalidArgf("repository %q declared twice", r.ID), "id")
		}
		c.repos[r.ID] = r
	}
	for _, t := range f.Trackers {
		// state changes always announce themselves with a comment
		if len(t.Keywords) > 0 && !t.Comments {
			return nil, perr.WithField(perr.InvalidArgf("tracker %q: keywords require comments: true", t.Name), "comments")
		}
		for _, id := range t.Repositories {
			if _, ok := c.repos[id]; !ok && id != "*" {
				return nil, perr.WithField(perr.InvalidArgf("tracker %q: unknown repository %q", t.Name, id), "repositories")
			}
		}
		spec := domain.TrackerSpec{
			Name:         t.Name,
			Kind:         t.Kind,
			URL:          strings.TrimRight(t.URL, "/"),
			Username:     t.Username,
			Repositories: append([]string(nil), t.Repositories...),
			KeyPattern:   t.KeyPattern,
			KeyGroup:     t.KeyGroup,
			Comments:     t.Comments,
			StateChanges: t.StateChanges,
			Keywords:     t.Keywords,
			Templates:    t.Templates,
			RatePerSec:   t.RatePerSec,
			Burst:        t.Burst,
		}
		if t.TokenEnv != "" && getenv != nil {
			spec.Token = strings.TrimSpace(getenv(t.TokenEnv))
		}
		c.specs = append(c.specs, spec)
	}
	return c, nil
}

// BaseURL is the public URL of the host application, without a trailing slash
func (c *Catalog) BaseURL() string { return c.baseURL }

// Repository implements domain.Repositories
func (c *Catalog) Repository(_ context.Context, id string) (domain.Repository, bool, error) {
	r, ok := c.repos[id]
	return r, ok, nil
}

// Repositories returns every repository sorted by id
func (c *Catalog) Repositories() []domain.Repository {
	out := make([]domain.Repository, 0, len(c.repos))
	for _, r := range c.repos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Specs returns the tracker specs in file order
func (c *Catalog) Specs() []domain.TrackerSpec {
	return append([]domain.TrackerSpec(nil), c.specs...)
}
