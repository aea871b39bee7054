// Package ticketing implements the Ticket Node (spec §4.I): validates a
// classification, runs the post-analysis dedup strategies, enforces the
// per-run cap, builds the ticket payload, and commits a create or a
// duplicate comment. Grounded on the teacher's services/alert_service.go
// validation-first, construct-then-commit style.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/logtriage/pkg/audit"
	"github.com/codeready-toolchain/logtriage/pkg/dedup"
	"github.com/codeready-toolchain/logtriage/pkg/fallback"
	"github.com/codeready-toolchain/logtriage/pkg/fingerprintstore"
	"github.com/codeready-toolchain/logtriage/pkg/tracker"
)

// ErrValidation is the local, non-aborting error spec §4.I step 1 names.
var ErrValidation = errors.New("ticketing: validation error")

// Log is the minimal per-log context the Ticket Node needs beyond the
// classification: identity (fingerprint/loghash) and the fields that
// enrich the payload description.
type Log struct {
	Fingerprint       string
	Loghash           string
	Logger            string
	Service           string
	Env               string
	NormalizedMessage string
	OccurrenceCount24h int
	RunbookURL         string
	LogURL             string
}

// RunbookResolver fetches runbook content for a URL. Kept as an
// interface, like the tracker/store collaborators above, so the Ticket
// Node never depends on how the content is actually retrieved or cached.
type RunbookResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// CategoryResolver supplies a runbook URL for a classifier error_type
// when the log itself didn't carry one. A RunbookResolver may
// optionally implement this; buildPayload checks for it via a type
// assertion rather than widening RunbookResolver, since most resolvers
// (and all test doubles) have no notion of categories.
type CategoryResolver interface {
	URLForCategory(errorType string) (string, bool)
}

// Outcome is what process(log, classification, run_state) returns: the
// terminal action taken, for statistics and audit purposes.
type Outcome struct {
	Action   audit.Action
	IssueKey string
	Reason   string
}

// Config is the subset of the configuration surface (spec §6) the
// Ticket Node consults.
type Config struct {
	AutoCreateTicket            bool
	CommentOnDuplicate          bool
	CommentCooldown             time.Duration
	PersistFingerprintsOnDryRun bool
	SourceLabel                 string
}

// Node is the Ticket Node. It holds no per-task state; run_state and the
// log/classification are passed into Process explicitly.
type Node struct {
	postAnalysis *dedup.Orchestrator
	tracker      tracker.Client
	store        *fingerprintstore.Store
	auditSink    *audit.Sink
	cfg          Config
	runbook      RunbookResolver
}

// SetRunbookResolver wires an optional runbook resolver. Without one,
// buildPayload falls back to the classifier's own description only.
func (n *Node) SetRunbookResolver(r RunbookResolver) {
	n.runbook = r
}

// NewNode builds a Ticket Node. postAnalysis MUST be an orchestrator
// built from dedup strategies 2-5 only: strategy 1 (in-run seen) already
// ran before analysis, per spec §4.J's task-level ordering.
func NewNode(postAnalysis *dedup.Orchestrator, trackerClient tracker.Client, store *fingerprintstore.Store, auditSink *audit.Sink, cfg Config) *Node {
	if cfg.SourceLabel == "" {
		cfg.SourceLabel = "datadog-log"
	}
	return &Node{postAnalysis: postAnalysis, tracker: trackerClient, store: store, auditSink: auditSink, cfg: cfg}
}

// Process runs the full §4.I contract for one log.
func (n *Node) Process(ctx context.Context, log Log, c fallback.Classification, rs *dedup.RunState) (Outcome, error) {
	if err := validate(c); err != nil {
		rs.IncrementErrors()
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionError, Reason: "validation", Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionError, Reason: "validation"}, nil
	}

	if !c.CreateTicket {
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionSkip, Reason: "not_actionable", Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionSkip, Reason: "not_actionable"}, nil
	}

	dupInput := dedup.Input{
		Fingerprint:       log.Fingerprint,
		Loghash:           log.Loghash,
		ErrorType:         c.ErrorType,
		Logger:            log.Logger,
		Title:             c.TicketTitle,
		Description:       c.TicketDescription,
		NormalizedMessage: log.NormalizedMessage,
	}
	dupResult, err := n.postAnalysis.Check(ctx, dupInput, rs)
	if err != nil {
		rs.IncrementErrors()
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionError, Reason: "dedup", Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionError, Reason: "dedup"}, nil
	}
	if dupResult.Kind != dedup.Unique {
		return n.handleDuplicate(ctx, log, c, rs, dupResult), nil
	}

	if !rs.TryReserveSlot(log.Fingerprint) {
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionCap, Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionCap}, nil
	}

	payload := n.buildPayload(ctx, log, c)

	if !n.cfg.AutoCreateTicket {
		if n.cfg.PersistFingerprintsOnDryRun && n.store != nil {
			_ = n.store.RecordSeen(log.Fingerprint)
		}
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionSimulate, Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionSimulate}, nil
	}

	issueKey, err := n.tracker.Create(ctx, payload)
	if err != nil {
		rs.ReleaseSlot(log.Fingerprint)
		rs.IncrementErrors()
		n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionError, Reason: "transient_tracker", Severity: string(c.Severity), ErrorType: c.ErrorType})
		return Outcome{Action: audit.ActionError, Reason: "transient_tracker"}, nil
	}

	// Idempotence ordering (spec §4.I): the persistent fingerprint is
	// inserted only AFTER the tracker confirms creation.
	if n.store != nil {
		_ = n.store.RecordCreated(log.Fingerprint, issueKey)
	}
	if err := n.tracker.AddLabels(ctx, issueKey, []string{fmt.Sprintf("loghash-%s", log.Loghash)}); err != nil {
		_ = err // best-effort: a missing label is caught by the idempotent seeding in handleDuplicate on a future run
	}
	n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionCreate, IssueKey: issueKey, Severity: string(c.Severity), ErrorType: c.ErrorType})
	return Outcome{Action: audit.ActionCreate, IssueKey: issueKey}, nil
}

func (n *Node) handleDuplicate(ctx context.Context, log Log, c fallback.Classification, rs *dedup.RunState, dup dedup.Result) Outcome {
	if dup.IssueKey != "" {
		_ = n.tracker.AddLabels(ctx, dup.IssueKey, []string{fmt.Sprintf("loghash-%s", log.Loghash)})

		if n.cfg.CommentOnDuplicate {
			last, seen := rs.CommentTimestamp(log.Fingerprint)
			if !seen || time.Since(last) >= n.cfg.CommentCooldown {
				body := fmt.Sprintf("Additional occurrence observed (fingerprint %s).", log.Fingerprint)
				if err := n.tracker.AddComment(ctx, dup.IssueKey, body); err == nil {
					rs.SetCommentTimestamp(log.Fingerprint, time.Now())
					rs.Stats.CommentsAdded++
				}
			}
		}
	}

	n.audit(audit.Record{Fingerprint: log.Fingerprint, Action: audit.ActionSkip, Reason: "duplicate", StrategyName: dup.StrategyName, IssueKey: dup.IssueKey, Severity: string(c.Severity), ErrorType: c.ErrorType})
	return Outcome{Action: audit.ActionSkip, Reason: "duplicate", IssueKey: dup.IssueKey}
}

func (n *Node) buildPayload(ctx context.Context, log Log, c fallback.Classification) tracker.Payload {
	description := fmt.Sprintf("%s\n\n---\nservice: %s\nenv: %s\nfingerprint: %s\noccurrences (24h): %d\n",
		c.TicketDescription, log.Service, log.Env, log.Fingerprint, log.OccurrenceCount24h)

	if log.LogURL != "" {
		description += fmt.Sprintf("log: %s\n", log.LogURL)
	}

	runbookURL := log.RunbookURL
	if runbookURL == "" && n.runbook != nil {
		if cr, ok := n.runbook.(CategoryResolver); ok {
			if url, found := cr.URLForCategory(c.ErrorType); found {
				runbookURL = url
			}
		}
	}
	if n.runbook != nil && runbookURL != "" {
		if content, err := n.runbook.Resolve(ctx, runbookURL); err == nil && content != "" {
			description += fmt.Sprintf("\n---\nrunbook (%s):\n%s\n", runbookURL, content)
		}
	}

	labels := []string{
		fmt.Sprintf("loghash-%s", log.Loghash),
		fmt.Sprintf("fingerprint-%s", log.Fingerprint),
		fmt.Sprintf("error_type-%s", c.ErrorType),
		fmt.Sprintf("severity-%s", c.Severity),
		n.cfg.SourceLabel,
	}

	return tracker.Payload{
		Title:       c.TicketTitle,
		Description: description,
		Labels:      labels,
		Priority:    priorityFor(c.Severity),
	}
}

func priorityFor(sev fallback.Severity) string {
	switch sev {
	case fallback.High:
		return "P1"
	case fallback.Medium:
		return "P2"
	default:
		return "P3"
	}
}

func validate(c fallback.Classification) error {
	if c.TicketTitle == "" || c.TicketDescription == "" {
		return fmt.Errorf("%w: missing title or description", ErrValidation)
	}
	if c.Severity == "" || c.ErrorType == "" {
		return fmt.Errorf("%w: missing severity or error_type", ErrValidation)
	}
	return nil
}

func (n *Node) audit(rec audit.Record) {
	if n.auditSink == nil {
		return
	}
	_ = n.auditSink.Write(rec)
}
