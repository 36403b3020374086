package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/campaignsplit/internal/csvio"
	"github.com/JonMunkholm/campaignsplit/internal/logging"
)

// Options configure a pipeline run.
type Options struct {
	InputDir  string
	OutputDir string // Reported in the result; sinks own the actual location
	Pattern   string
	CSV       csvio.Options
	Timeout   time.Duration // Whole-run limit; zero means none
}

// Service runs the campaign split pipeline: discovery, reconciliation,
// normalization and output, strictly in that order and on one goroutine.
type Service struct {
	opts     Options
	sinks    []Sink
	recorder Recorder
	now      func() time.Time
}

// NewService creates a pipeline service. At least one sink is required.
// recorder may be nil.
func NewService(opts Options, sinks []Sink, recorder Recorder) (*Service, error) {
	if len(sinks) == 0 {
		return nil, errors.New("at least one output sink is required")
	}
	if GroupCount() == 0 {
		return nil, errors.New("no groups registered")
	}
	return &Service{
		opts:     opts,
		sinks:    sinks,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

// Run executes the pipeline once.
//
// The run aborts on the first fatal error (unreadable archive, malformed
// entry, missing required column, sink failure). Groups are written in
// registry order, so outputs of earlier groups may already exist when a later
// group fails. The returned result is non-nil even on error.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	logger := logging.FromContext(ctx)
	start := s.now()
	result := &RunResult{
		RunID:     runID,
		InputDir:  s.opts.InputDir,
		OutputDir: s.opts.OutputDir,
		Phase:     PhaseDiscovering,
		StartedAt: start,
	}

	logger.Info("run started", "input_dir", s.opts.InputDir, "sinks", s.sinkNames())

	err := s.run(ctx, result)

	outputs, closeErr := s.closeSinks(ctx)
	result.Outputs = append(result.Outputs, outputs...)
	if err == nil {
		err = closeErr
	}

	result.Duration = s.now().Sub(start)
	if err != nil {
		failedIn := result.Phase
		result.Phase = PhaseFailed
		result.Error = err.Error()
		logger.Error("run failed", "phase", failedIn, "error", err)
	} else {
		result.Phase = PhaseComplete
		logger.Info("run complete",
			"archives", len(result.Archives),
			"entries", result.Entries,
			"rows", result.TotalRows(),
			"duration", result.Duration,
		)
	}

	if s.recorder != nil {
		// The ledger must not mask the run's own outcome.
		if recErr := s.recorder.RecordRun(context.WithoutCancel(ctx), result); recErr != nil {
			logger.Warn("failed to record run", "error", recErr)
		}
	}

	return result, err
}

func (s *Service) run(ctx context.Context, result *RunResult) error {
	disc, err := Discover(ctx, s.opts.InputDir, DiscoverOptions{
		Pattern: s.opts.Pattern,
		CSV:     s.opts.CSV,
	})
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	result.Archives = disc.Archives
	result.Entries = disc.Entries

	for _, def := range All() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("operation cancelled: %w", err)
		}

		gr, err := s.runGroup(ctx, def, disc, result)
		result.Groups = append(result.Groups, gr)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) runGroup(ctx context.Context, def GroupDefinition, disc *Discovery, result *RunResult) (GroupResult, error) {
	logger := logging.WithFields(ctx, "group", def.Info.Key)
	sources := disc.Groups[def.Info.Key]
	gr := GroupResult{Key: def.Info.Key, Sources: len(sources)}

	if len(sources) == 0 {
		gr.Skipped = true
		logger.Info("group skipped", "reason", "no matching source tables")
		return gr, nil
	}

	result.Phase = PhaseReconciling
	unified, err := Unify(def, sources)
	if err != nil {
		return gr, fmt.Errorf("reconcile %s: %w", def.Info.Key, err)
	}
	if unified.Len() == 0 {
		gr.Skipped = true
		logger.Info("group skipped", "reason", "no rows", "sources", len(sources))
		return gr, nil
	}

	result.Phase = PhaseNormalizing
	out, err := Normalize(def, unified)
	if err != nil {
		return gr, fmt.Errorf("normalize %s: %w", def.Info.Key, err)
	}
	gr.Rows = out.Len()

	result.Phase = PhaseWriting
	for _, sink := range s.sinks {
		loc, err := sink.Write(ctx, def.Info, out)
		if err != nil {
			return gr, fmt.Errorf("write %s to %s: %w", def.Info.Key, sink.Name(), err)
		}
		if loc != "" {
			gr.Outputs = append(gr.Outputs, loc)
			result.Outputs = append(result.Outputs, loc)
		}
	}

	logger.Info("group written", "sources", len(sources), "rows", gr.Rows, "outputs", gr.Outputs)
	return gr, nil
}

// closeSinks closes every sink, even after a failure, so pools and files
// are released. Outputs flushed on close are returned.
func (s *Service) closeSinks(ctx context.Context) ([]string, error) {
	var outputs []string
	var errs []error
	for _, sink := range s.sinks {
		locs, err := sink.Close(ctx)
		outputs = append(outputs, locs...)
		if err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return outputs, errors.Join(errs...)
}

func (s *Service) sinkNames() []string {
	names := make([]string, len(s.sinks))
	for i, sink := range s.sinks {
		names[i] = sink.Name()
	}
	return names
}
