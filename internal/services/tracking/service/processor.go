// Package service turns referencing objects into comments and transitions on issue trackers
package service

import (
	"context"
	"time"

	"issuebridge/internal/core/issuekeys"
	"issuebridge/internal/core/statechange"
	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/tracking/domain"
)

// Mode is the set of side effects a Processor may perform
type Mode int

const (
	// ReadOnly only finds issues and builds links
	ReadOnly Mode = iota
	// Commenting posts one reference comment per issue and object
	Commenting
	// StateChanging additionally transitions issues on trigger words
	StateChanging
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "readonly"
	case Commenting:
		return "commenting"
	case StateChanging:
		return "statechanging"
	}
	return "unknown"
}

// Config describes one tracker instance for one repository
// Fields beyond Mode are required only by the modes that use them
type Config struct {
	Name       string
	Repository domain.Repository
	Matcher    issuekeys.Matcher
	Links      domain.LinkFactory
	Mode       Mode

	Commentator domain.Commentator
	References  domain.ReferenceRenderer

	StateChanger domain.StateChanger
	StateChanges domain.StateChangeRenderer

	// Resubmitter is exposed to the resubmit batch; nil means the tracker cannot redeliver
	Resubmitter domain.Resubmitter
}

// Validate checks that every collaborator the mode needs is present
func (c Config) Validate() error {
	if c.Name == "" {
		return perr.WithField(perr.InvalidArgf("tracker name is required"), "name")
	}
	if c.Matcher == nil || c.Matcher.KeyPattern() == nil {
		return perr.WithField(perr.InvalidArgf("%s: key matcher is required", c.Name), "matcher")
	}
	if c.Links == nil {
		return perr.WithField(perr.InvalidArgf("%s: link factory is required", c.Name), "links")
	}
	switch c.Mode {
	case ReadOnly:
		return nil
	case Commenting, StateChanging:
	default:
		return perr.InvalidArgf("%s: unknown mode %d", c.Name, c.Mode)
	}
	if c.Commentator == nil || c.References == nil {
		return perr.InvalidArgf("%s: %s mode needs a commentator and a reference renderer", c.Name, c.Mode)
	}
	if c.Mode == StateChanging && (c.StateChanger == nil || c.StateChanges == nil) {
		return perr.InvalidArgf("%s: %s mode needs a state changer and a state change renderer", c.Name, c.Mode)
	}
	return nil
}

// Processor applies one tracker's configuration to referencing objects
type Processor struct {
	cfg    Config
	ledger *ProcessedStore
	locks  *keylock.Locker
	audit  domain.Auditor
	log    logger.Logger
	now    func() time.Time
}

var _ domain.Tracker = (*Processor)(nil)

// NewProcessor validates cfg; ledger may be nil only in ReadOnly mode
func NewProcessor(cfg Config, ledger *ProcessedStore, locks *keylock.Locker, audit domain.Auditor, log logger.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != ReadOnly && ledger == nil {
		return nil, perr.InvalidArgf("%s: %s mode needs a ledger", cfg.Name, cfg.Mode)
	}
	if locks == nil {
		locks = keylock.New()
	}
	if audit == nil {
		audit = nopAuditor{}
	}
	return &Processor{
		cfg:    cfg,
		ledger: ledger,
		locks:  locks,
		audit:  audit,
		log:    log.With().Str("tracker", cfg.Name).Str("repository", cfg.Repository.ID).Logger(),
		now:    time.Now,
	}, nil
}

// Name returns the tracker name
func (p *Processor) Name() string { return p.cfg.Name }

// Mode returns the configured mode
func (p *Processor) Mode() Mode { return p.cfg.Mode }

// Resubmitter returns the redelivery capability, if configured
func (p *Processor) Resubmitter() (domain.Resubmitter, bool) {
	return p.cfg.Resubmitter, p.cfg.Resubmitter != nil
}

// FindIssues maps every key in obj to its link; it has no side effects
func (p *Processor) FindIssues(obj domain.ReferencingObject) map[string]string {
	keys := issuekeys.FindKeys(p.cfg.Matcher, obj.Texts()...)
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = p.cfg.Links.CreateLink(k)
	}
	return out
}

// Process comments on or transitions every issue obj references
// A failure on one key is logged and does not stop the others
func (p *Processor) Process(ctx context.Context, obj domain.ReferencingObject) {
	if p.cfg.Mode == ReadOnly {
		return
	}
	for _, key := range issuekeys.FindKeys(p.cfg.Matcher, obj.Texts()...) {
		if err := p.processKey(ctx, key, obj); err != nil {
			p.log.Warn().Err(err).
				Str("issue_key", key).
				Str("object_type", string(obj.Type)).
				Str("object_id", obj.ID).
				Msg("issue processing failed")
		}
	}
}

func (p *Processor) processKey(ctx context.Context, key string, obj domain.ReferencingObject) error {
	// one delivery per key at a time so duplicate events see each other's marks
	unlock := p.locks.Lock("process|" + p.cfg.Name + "|" + obj.Repository.ID + "|" + issuekeys.NormalizeKey(key))
	defer unlock()

	if kw, ok := p.detectKeyword(ctx, key, obj); ok {
		return p.changeState(ctx, key, kw, obj)
	}
	return p.comment(ctx, key, obj)
}

func (p *Processor) detectKeyword(ctx context.Context, key string, obj domain.ReferencingObject) (string, bool) {
	if p.cfg.Mode != StateChanging || !obj.TriggersStateChange {
		return "", false
	}
	if a, ok := p.cfg.StateChanger.(domain.StateChangeActivation); ok && !a.StateChangeActive(obj.Type) {
		return "", false
	}
	keywords, err := p.cfg.StateChanger.KeyWords(ctx, key)
	if err != nil {
		p.log.Warn().Err(err).Str("issue_key", key).Msg("could not load state change keywords")
		return "", false
	}
	return statechange.Detect(key, keywords, obj.Texts()...)
}

// changeState transitions then comments; a comment failure after a successful
// transition leaves the issue transitioned and unmarked
func (p *Processor) changeState(ctx context.Context, key, keyword string, obj domain.ReferencingObject) error {
	done, err := p.ledger.IsProcessedFor(ctx, key, obj, keyword)
	if err != nil || done {
		return err
	}
	text, err := p.cfg.StateChanges.RenderStateChange(key, keyword, obj)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "render state change for %s", key)
	}
	if err := p.cfg.StateChanger.ChangeState(ctx, key, keyword); err != nil {
		p.record(ctx, domain.AuditFailed, key, keyword, obj, err)
		return perr.WithOp(err, "change_state")
	}
	p.record(ctx, domain.AuditStateChange, key, keyword, obj, nil)
	if err := p.cfg.Commentator.Comment(ctx, key, text); err != nil {
		p.record(ctx, domain.AuditFailed, key, keyword, obj, err)
		return perr.WithOp(err, "comment")
	}
	return p.ledger.MarkFor(ctx, key, obj, keyword)
}

func (p *Processor) comment(ctx context.Context, key string, obj domain.ReferencingObject) error {
	done, err := p.ledger.IsProcessed(ctx, key, obj)
	if err != nil || done {
		return err
	}
	text, err := p.cfg.References.RenderReference(key, obj)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "render reference for %s", key)
	}
	if err := p.cfg.Commentator.Comment(ctx, key, text); err != nil {
		p.record(ctx, domain.AuditFailed, key, "", obj, err)
		return perr.WithOp(err, "comment")
	}
	p.record(ctx, domain.AuditComment, key, "", obj, nil)
	return p.ledger.Mark(ctx, key, obj)
}

func (p *Processor) record(ctx context.Context, kind domain.AuditKind, key, keyword string, obj domain.ReferencingObject, err error) {
	ev := domain.AuditEvent{
		At:           p.now().UTC(),
		Kind:         kind,
		Tracker:      p.cfg.Name,
		RepositoryID: obj.Repository.ID,
		IssueKey:     key,
		ObjectType:   obj.Type,
		ObjectID:     obj.ID,
		Keyword:      keyword,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.audit.Record(ctx, ev)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, domain.AuditEvent) {}
