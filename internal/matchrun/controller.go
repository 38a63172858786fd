// Package matchrun orchestrates a selfie match over a session catalog: listing,
// concurrent face detection, in-order gallery matching and progress reporting.
package matchrun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/constants"
	"github.com/kozaktomas/event-gallery/internal/facematch"
)

// ErrNoFaceDetected is the failure cause of a run started without a selfie embedding.
var ErrNoFaceDetected = errors.New("no face detected in selfie")

// Catalog lists the photos of a session in catalog order.
type Catalog interface {
	ListAllWithProgress(ctx context.Context, sessionID string, onPage func(page, totalPages int)) ([]catalog.PhotoDescriptor, int, error)
}

// ImageFetcher downloads the image bytes of a photo.
type ImageFetcher interface {
	FetchImage(ctx context.Context, photo catalog.PhotoDescriptor) ([]byte, error)
}

// FaceDetector returns one embedding per face found in an image.
type FaceDetector interface {
	DetectAll(ctx context.Context, imageData []byte) ([]facematch.Embedding, error)
}

// Options tune a Controller. Zero values fall back to defaults.
type Options struct {
	Workers         int
	DetectTimeout   time.Duration
	Thresholds      facematch.Thresholds
	GalleryCapacity int
	// OnProgress is called from the run goroutine after every progress update.
	OnProgress func(runID string, p Progress)
}

// Controller starts match runs.
type Controller struct {
	catalog  Catalog
	images   ImageFetcher
	detector FaceDetector
	logger   *zap.Logger
	opts     Options
}

// NewController creates a controller. A nil logger disables logging.
func NewController(cat Catalog, images ImageFetcher, detector FaceDetector, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = constants.WorkerPoolSize
	}
	if opts.Workers > constants.MaxWorkerPoolSize {
		opts.Workers = constants.MaxWorkerPoolSize
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = constants.DetectTimeout
	}
	if opts.Thresholds == (facematch.Thresholds{}) {
		opts.Thresholds = facematch.DefaultThresholds()
	}
	if opts.GalleryCapacity <= 0 {
		opts.GalleryCapacity = constants.GalleryCapacity
	}
	return &Controller{
		catalog:  cat,
		images:   images,
		detector: detector,
		logger:   logger,
		opts:     opts,
	}
}

// Start begins a run for sessionID seeded with the selfie embedding. Validation
// failures return a terminal Failed run together with the error. Otherwise the
// run proceeds in the background until done or ctx is cancelled.
func (c *Controller) Start(ctx context.Context, sessionID string, selfie facematch.Embedding) (*Run, error) {
	run := newRun(sessionID)

	var cause error
	switch {
	case len(selfie) == 0:
		cause = ErrNoFaceDetected
	default:
		cause = c.opts.Thresholds.Validate()
	}
	if cause != nil {
		_ = run.finish(StateFailed, cause)
		return run, cause
	}

	runCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel
	run.gallerySize = 1
	if err := run.transition(StateListing); err != nil {
		cancel()
		return run, err
	}

	log := c.logger.With(zap.String("run_id", run.ID), zap.String("session_id", sessionID))
	log.Info("match run started", zap.Int("workers", c.opts.Workers))

	go c.execute(runCtx, cancel, run, selfie.Clone(), log)
	return run, nil
}

func (c *Controller) report(run *Run, p Progress) {
	p = run.setProgress(p)
	if c.opts.OnProgress != nil {
		c.opts.OnProgress(run.ID, p)
	}
}

func (c *Controller) execute(ctx context.Context, cancel context.CancelFunc, run *Run, selfie facematch.Embedding, log *zap.Logger) {
	defer cancel()

	c.report(run, Progress{
		Phase:   PhaseListing,
		Percent: constants.ProgressListingStart,
		Status:  "Loading photos...",
	})

	span := constants.ProgressListingDone - constants.ProgressListingStart
	photos, _, err := c.catalog.ListAllWithProgress(ctx, run.SessionID, func(page, totalPages int) {
		percent := constants.ProgressListingStart
		if totalPages > 0 {
			percent += span * page / totalPages
		}
		c.report(run, Progress{
			Phase:   PhaseListing,
			Percent: percent,
			Status:  fmt.Sprintf("Loading photos (page %d of %d)...", page, totalPages),
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("match run cancelled during listing")
			_ = run.finish(StateCancelled, nil)
			return
		}
		log.Error("catalog listing failed", zap.Error(err))
		_ = run.finish(StateFailed, fmt.Errorf("failed to list photos: %w", err))
		return
	}

	if err := run.transition(StateAnalyzing); err != nil {
		log.Error("unexpected state", zap.Error(err))
		return
	}
	total := len(photos)
	c.report(run, Progress{
		Phase:   PhaseFetching,
		Percent: constants.ProgressListingDone,
		Status:  fmt.Sprintf("Analyzing %d photos...", total),
		Total:   total,
	})

	matcher := facematch.NewMatcher(facematch.NewGallery(selfie, c.opts.GalleryCapacity), c.opts.Thresholds)
	seq := facematch.NewSequencer(matcher)
	results := c.dispatch(ctx, photos)

	analyzeSpan := constants.ProgressAnalyzingEnd - constants.ProgressListingDone
	for seq.Committed() < total {
		var r facematch.Result
		var ok bool
		select {
		case <-ctx.Done():
			c.cancelled(run, seq, log)
			return
		case r, ok = <-results:
		}
		if !ok {
			break
		}
		if ctx.Err() != nil {
			c.cancelled(run, seq, log)
			return
		}

		commits := seq.Offer(r)
		if len(commits) == 0 {
			continue
		}
		for _, cm := range commits {
			if cm.Err != nil {
				log.Warn("photo analysis failed", zap.String("photo_id", cm.PhotoID), zap.Error(cm.Err))
			}
		}
		run.commit(commits, seq)

		done := seq.Committed()
		c.report(run, Progress{
			Phase:     PhaseAnalyzing,
			Percent:   constants.ProgressListingDone + analyzeSpan*done/total,
			Status:    fmt.Sprintf("Analyzed %d of %d photos", done, total),
			Completed: done,
			Total:     total,
		})
	}

	c.report(run, Progress{
		Phase:     PhaseDone,
		Percent:   constants.ProgressDone,
		Status:    "Done",
		Completed: seq.Committed(),
		Total:     total,
	})
	res := run.Result()
	log.Info("match run finished",
		zap.Int("photos", total),
		zap.Int("matches", len(res.Matches)),
		zap.Int("failures", res.Failures),
		zap.Int("gallery_size", seq.GallerySize()),
	)
	_ = run.finish(StateDone, nil)
}

func (c *Controller) cancelled(run *Run, seq *facematch.Sequencer, log *zap.Logger) {
	log.Info("match run cancelled",
		zap.Int("committed", seq.Committed()),
		zap.Int("pending", seq.Pending()),
	)
	_ = run.finish(StateCancelled, nil)
}

// dispatch analyzes photos with a bounded pool. The results channel is buffered
// to the photo count so abandoned workers never block.
func (c *Controller) dispatch(ctx context.Context, photos []catalog.PhotoDescriptor) <-chan facematch.Result {
	results := make(chan facematch.Result, len(photos))
	semaphore := make(chan struct{}, c.opts.Workers)
	var wg sync.WaitGroup

	for i, photo := range photos {
		wg.Add(1)
		go func(idx int, p catalog.PhotoDescriptor) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results <- facematch.Result{Index: idx, PhotoID: p.ID, Err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }()

			faces, err := c.analyze(ctx, p)
			results <- facematch.Result{Index: idx, PhotoID: p.ID, Faces: faces, Err: err}
		}(i, photo)
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// analyze fetches one photo and detects its faces under a per-call deadline.
func (c *Controller) analyze(ctx context.Context, photo catalog.PhotoDescriptor) ([]facematch.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.opts.DetectTimeout)
	defer cancel()

	data, err := c.images.FetchImage(callCtx, photo)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	faces, err := c.detector.DetectAll(callCtx, data)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return faces, nil
}
