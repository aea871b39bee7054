// Package pipeline implements the Pipeline / Worker Pool (spec §4.J):
// a bounded pool of workers pulling logs from a fetched batch, running
// strategy 1 then analysis then the Ticket Node per log, sharing a
// rate limiter, a mutex-guarded run state, and the dedup/cache layers.
// Grounded on the teacher's pkg/queue/pool.go and pkg/queue/worker.go
// pool-of-workers shape.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/logtriage/pkg/analysis"
	"github.com/codeready-toolchain/logtriage/pkg/audit"
	"github.com/codeready-toolchain/logtriage/pkg/dedup"
	"github.com/codeready-toolchain/logtriage/pkg/fingerprintstore"
	"github.com/codeready-toolchain/logtriage/pkg/logbackend"
	"github.com/codeready-toolchain/logtriage/pkg/normalize"
	"github.com/codeready-toolchain/logtriage/pkg/ratelimit"
	"github.com/codeready-toolchain/logtriage/pkg/similarity"
	"github.com/codeready-toolchain/logtriage/pkg/ticketing"
	"github.com/codeready-toolchain/logtriage/pkg/tracker"
)

// Config is the subset of the configuration surface (spec §6) the
// pipeline itself consults; the rest is forwarded to the nodes it
// builds.
type Config struct {
	Workers                     int
	RatePerSecond               float64
	RateBurst                   int
	TaskTimeout                 time.Duration
	MaxTicketsPerRun            int
	AutoCreateTicket            bool
	CommentOnDuplicate          bool
	CommentCooldownMinutes      int
	PersistFingerprintsOnDryRun bool
	SearchWindowDays            int
	SearchMaxResults            int
	FallbackEnabled             bool
	SourceLabel                 string
}

// DefaultConfig matches spec §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		Workers:                3,
		RatePerSecond:          10,
		RateBurst:              10,
		TaskTimeout:            60 * time.Second,
		MaxTicketsPerRun:       10,
		AutoCreateTicket:       false,
		CommentOnDuplicate:     true,
		CommentCooldownMinutes: 60,
		SearchWindowDays:       30,
		SearchMaxResults:       20,
		FallbackEnabled:        true,

		PersistFingerprintsOnDryRun: true,
	}
}

// Deps are the injected collaborators the pipeline wires into the
// Analysis and Ticket nodes.
type Deps struct {
	Fetcher          logbackend.Fetcher
	LLM              llmCompleter
	Breaker          analysis.CircuitBreaker
	Tracker          tracker.Client
	Store            *fingerprintstore.Store
	AuditSink        *audit.Sink
	SimilarityEngine *similarity.Engine

	// RunbookResolver is optional. When set, the Ticket Node appends
	// resolved runbook content to a ticket's description for logs
	// whose Record carries a RunbookURL.
	RunbookResolver ticketing.RunbookResolver
}

// RunSummary is the result of one Run call (spec §4.J contract
// `run(logs) → RunSummary`).
type RunSummary struct {
	Stats      dedup.Statistics
	DurationMS int64
}

// Pipeline is the assembled worker pool: construct once per process with
// New, then call Run for each batch.
type Pipeline struct {
	cfg          Config
	fetcher      logbackend.Fetcher
	preAnalysis  *dedup.Orchestrator
	analysisNode *analysis.Node
	ticketNode   *ticketing.Node
	auditSink    *audit.Sink
}

// New assembles the pipeline: wraps the LLM client and tracker client in
// rate-limiting decorators, builds the post-analysis dedup cascade
// (strategies 2-5), and constructs the Analysis and Ticket nodes.
func New(cfg Config, deps Deps) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Workers > 20 {
		cfg.Workers = 20
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	limiter := ratelimit.New(cfg.RatePerSecond, burst)
	rlLLM := newRateLimitedLLM(deps.LLM, limiter)
	rlTracker := newRateLimitedTracker(deps.Tracker, limiter)

	searcher := tracker.NewDedupSearcher(rlTracker)
	postAnalysis := dedup.NewOrchestrator([]dedup.Strategy{
		dedup.NewFingerprintCache(deps.Store),
		dedup.NewLoghashLabelSearch(searcher, cfg.SearchWindowDays, cfg.SearchMaxResults),
		dedup.NewErrorTypeLabelSearch(searcher, deps.SimilarityEngine, cfg.SearchWindowDays, cfg.SearchMaxResults),
		dedup.NewSimilaritySearch(searcher, deps.SimilarityEngine, cfg.SearchWindowDays, cfg.SearchMaxResults),
	})

	analysisNode := analysis.NewNode(rlLLM, deps.Breaker, cfg.FallbackEnabled)
	ticketNode := ticketing.NewNode(postAnalysis, rlTracker, deps.Store, deps.AuditSink, ticketing.Config{
		AutoCreateTicket:            cfg.AutoCreateTicket,
		CommentOnDuplicate:          cfg.CommentOnDuplicate,
		CommentCooldown:             time.Duration(cfg.CommentCooldownMinutes) * time.Minute,
		PersistFingerprintsOnDryRun: cfg.PersistFingerprintsOnDryRun,
		SourceLabel:                 cfg.SourceLabel,
	})
	if deps.RunbookResolver != nil {
		ticketNode.SetRunbookResolver(deps.RunbookResolver)
	}

	return &Pipeline{
		cfg:          cfg,
		fetcher:      deps.Fetcher,
		preAnalysis:  dedup.NewOrchestrator([]dedup.Strategy{dedup.NewInMemorySeenLogs()}),
		analysisNode: analysisNode,
		ticketNode:   ticketNode,
		auditSink:    deps.AuditSink,
	}
}

// Run fetches one batch of logs and processes it to completion, or until
// ctx is cancelled. Cancellation stops scheduling new tasks; in-flight
// workers finish their current tracker call and return (spec §4.J).
func (p *Pipeline) Run(ctx context.Context, filters logbackend.Filters) (RunSummary, error) {
	start := time.Now()
	runID := uuid.NewString()

	logs, err := p.fetcher.FetchLogs(ctx, filters)
	if err != nil {
		return RunSummary{}, err
	}

	rs := dedup.NewRunState(p.cfg.MaxTicketsPerRun)
	rs.Stats.LogsFetched = int64(len(logs))

	jobs := make(chan logbackend.Record)
	go func() {
		defer close(jobs)
		for _, l := range logs {
			select {
			case jobs <- l:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for log := range jobs {
				p.processOne(ctx, log, rs)
			}
		}()
	}
	wg.Wait()

	summary := RunSummary{Stats: rs.Stats, DurationMS: time.Since(start).Milliseconds()}
	if p.auditSink != nil {
		_ = p.auditSink.WriteSummary(audit.SummaryRecord{
			RunID:                runID,
			LogsFetched:          summary.Stats.LogsFetched,
			TicketsCreated:       summary.Stats.TicketsCreated,
			CommentsAdded:        summary.Stats.CommentsAdded,
			InRunDuplicates:      summary.Stats.InRunDuplicates,
			PersistentDuplicates: summary.Stats.PersistentDuplicates,
			CapsHit:              summary.Stats.CapsHit,
			Errors:               summary.Stats.Errors,
			DurationMS:           summary.DurationMS,
		})
	}
	return summary, nil
}

// processOne runs one log through strategy 1, analysis, and the Ticket
// Node, under a per-task deadline. Any uncaught failure (including a
// panic) is captured and converted to an audit error record rather than
// propagated, so one log's failure never cancels its peers.
func (p *Pipeline) processOne(ctx context.Context, log logbackend.Record, rs *dedup.RunState) {
	taskCtx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline: recovered panic processing log", "panic", r)
			p.incrementErrors(rs)
			p.audit(audit.Record{Action: audit.ActionError, Reason: "panic"})
		}
	}()

	normalized := normalize.Normalize(log.Message)
	loghash := normalize.Loghash(normalized)

	preResult, err := p.preAnalysis.Check(taskCtx, dedup.Input{Loghash: loghash}, rs)
	if err != nil {
		p.incrementErrors(rs)
		p.audit(audit.Record{Action: audit.ActionError, Reason: "pre_analysis", Service: log.Service, Env: log.Env})
		return
	}
	if preResult.Kind != dedup.Unique {
		p.audit(audit.Record{Action: audit.ActionSkip, Reason: "duplicate", StrategyName: preResult.StrategyName, Service: log.Service, Env: log.Env})
		return
	}

	lc := analysis.LogContext{
		Logger:             log.Logger,
		Thread:             log.Thread,
		NormalizedMessage:  normalized,
		Detail:             log.Detail,
		Service:            log.Service,
		Env:                log.Env,
		OccurrenceCount24h: log.OccurrenceCount24h,
	}

	classification, err := p.analysisNode.Analyze(taskCtx, lc)
	if err != nil {
		p.incrementErrors(rs)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			p.audit(audit.Record{Action: audit.ActionSkip, Reason: "timeout", Service: log.Service, Env: log.Env})
		case errors.Is(err, context.Canceled):
			// Cancellation is caller-initiated shutdown, not a task failure;
			// no audit record for a run that was told to stop.
		default:
			p.audit(audit.Record{Action: audit.ActionError, Reason: "analysis", Service: log.Service, Env: log.Env})
		}
		return
	}

	fingerprint := normalize.Fingerprint(classification.ErrorType, normalized)
	tlog := ticketing.Log{
		Fingerprint:        fingerprint,
		Loghash:            loghash,
		Logger:             log.Logger,
		Service:            log.Service,
		Env:                log.Env,
		NormalizedMessage:  normalized,
		OccurrenceCount24h: log.OccurrenceCount24h,
		RunbookURL:         log.RunbookURL,
		LogURL:             log.LogURL,
	}

	if _, err := p.ticketNode.Process(taskCtx, tlog, classification, rs); err != nil {
		p.incrementErrors(rs)
		p.audit(audit.Record{Action: audit.ActionError, Reason: "ticketing", Service: log.Service, Env: log.Env})
	}
}

func (p *Pipeline) incrementErrors(rs *dedup.RunState) {
	rs.IncrementErrors()
}

func (p *Pipeline) audit(rec audit.Record) {
	if p.auditSink == nil {
		return
	}
	_ = p.auditSink.Write(rec)
}
