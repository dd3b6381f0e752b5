package tasks

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// Tracker holds the rules of ingestion, sweeping and resolution. It performs no I/O: every method works on a
// [models.Sheet] and queues the writes for a store to commit.
type Tracker struct {
	roster     []string
	sweepMode  string
	classifier *Classifier
	balancer   *Balancer
	clock      shared.Clock
	logger     *log.Logger
}

// TrackerOpts configures a [Tracker]. Nil fields are defaulted.
type TrackerOpts struct {
	Config  *shared.Config
	Chooser Chooser
	Clock   shared.Clock
	Logger  *log.Logger
}

// NewTracker builds a tracker from the tracker and classifier sections of the config.
func NewTracker(opts TrackerOpts) (*Tracker, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Chooser == nil {
		opts.Chooser = NewChooser(opts.Config.Tracker.Seed)
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if len(opts.Config.Tracker.Roster) == 0 {
		return nil, fmt.Errorf("%w: tracker.roster is empty", shared.ErrInvalidConfig)
	}

	classifier, err := NewClassifier(opts.Config.Classifier)
	if err != nil {
		return nil, err
	}

	mode := opts.Config.Tracker.SweepMode
	if mode == "" {
		mode = shared.SweepExact
	}

	return &Tracker{
		roster:     opts.Config.Tracker.Roster,
		sweepMode:  mode,
		classifier: classifier,
		balancer:   NewBalancer(opts.Chooser),
		clock:      opts.Clock,
		logger:     opts.Logger,
	}, nil
}

// Classifier exposes the tracker's classifier for reports and views.
func (t *Tracker) Classifier() *Classifier { return t.classifier }

// Roster returns the configured reviewers.
func (t *Tracker) Roster() []string { return t.roster }

func (t *Tracker) today() string {
	return shared.FormatDate(t.clock.Now())
}
