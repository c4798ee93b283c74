package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

// Pass is one end-to-end engine cycle: a discovery run followed by the
// optional enrichment, analytics, archive, and notification steps for the
// same account. The post-discovery steps produce derived data; their
// failures are logged and never fail the pass.
type Pass struct {
	Orchestrator *Orchestrator
	Enricher     *Enricher
	Analyzer     *Analyzer
	Archive      ports.RunArchive
	Notifier     ports.Notifier
	Logger       *slog.Logger
}

// Execute runs the cycle for cfg and returns the discovery result.
func (p *Pass) Execute(ctx context.Context, cfg domain.RunConfig) (*RunResult, error) {
	result, err := p.Orchestrator.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if p.Enricher != nil {
		if snap, err := p.Enricher.Enrich(ctx, cfg.TargetHandle); err != nil {
			p.warn("enrichment failed", "account", cfg.TargetHandle, "error", err)
		} else {
			result.Snapshot = snap
		}
	}

	if p.Analyzer != nil {
		if _, err := p.Analyzer.Analyze(ctx, cfg.TargetHandle); err != nil {
			p.warn("analysis failed", "account", cfg.TargetHandle, "error", err)
		}
	}

	if p.Archive != nil {
		if err := p.Archive.SaveRun(ctx, *result.Snapshot); err != nil {
			p.warn("archive failed", "account", cfg.TargetHandle, "error", err)
		}
	}

	if p.Notifier != nil {
		if err := p.Notifier.Notify(ctx, digest(cfg.TargetHandle, result)); err != nil {
			p.warn("notification failed", "account", cfg.TargetHandle, "error", err)
		}
	}

	return result, nil
}

func (p *Pass) warn(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warn(msg, args...)
	}
}

// digest renders the short Markdown summary pushed after each pass.
func digest(handle string, result *RunResult) string {
	snap := result.Snapshot

	var b strings.Builder
	fmt.Fprintf(&b, "*Discovery %s* for @%s\n", result.Status, handle)
	fmt.Fprintf(&b, "Analyzed %d candidates, %d high quality.", snap.AnalyzedCount, snap.HighQualityCount)

	if len(snap.TopCompetitors) > 0 {
		top := snap.TopCompetitors[0]
		switch snap.Method {
		case domain.MethodNativeMutual:
			fmt.Fprintf(&b, "\nClosest competitor: @%s (%d mutual connections)", top.Username, top.MutualConnections)
		default:
			fmt.Fprintf(&b, "\nClosest competitor: @%s (%.1f%% overlap)", top.Username, top.OverlapPercentage)
		}
	}

	return b.String()
}

// Scheduler wires the interval driver with the discovery pass.
type Scheduler struct {
	driver ports.Scheduler
	pass   *Pass
	cfg    domain.RunConfig
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring discovery passes.
func NewScheduler(driver ports.Scheduler, pass *Pass, cfg domain.RunConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pass: pass, cfg: cfg, logger: logger}
}

// Start registers the pass with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pass == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.pass.Execute(ctx, s.cfg); err != nil {
			if s.logger != nil {
				s.logger.Warn("scheduled discovery failed", "trigger", trigger, "error", err)
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
