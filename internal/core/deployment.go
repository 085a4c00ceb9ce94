package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/labdeploy/internal/eventbus"
	"github.com/edvin/labdeploy/internal/metrics"
	"github.com/edvin/labdeploy/internal/model"
	"github.com/edvin/labdeploy/internal/platform"
)

// DeploymentRepository is the store contract the DeploymentService relies on.
type DeploymentRepository interface {
	Insert(ctx context.Context, d *model.Deployment) error
	MarkFailedPublish(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Deployment, error)
	ListRecent(ctx context.Context, limit int) ([]model.Deployment, error)
}

type DeploymentServiceConfig struct {
	// Source and DetailType tag every published event.
	Source     string
	DetailType string
	// PublishTimeout bounds a single publish; hitting it counts as a
	// publish failure.
	PublishTimeout time.Duration
	// StoreTimeout bounds each store call, including the compensating write.
	StoreTimeout time.Duration
}

// DeploymentService accepts deployment requests: it records each request,
// announces it on the event bus, and marks the record FAILED_PUBLISH when the
// announcement fails.
//
// Insert and publish are not atomic. If the compensating write also fails the
// record stays QUEUED with no event behind it; that window is logged and
// counted but never reconciled here.
type DeploymentService struct {
	store     DeploymentRepository
	publisher eventbus.Publisher
	cfg       DeploymentServiceConfig
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

func NewDeploymentService(store DeploymentRepository, publisher eventbus.Publisher, cfg DeploymentServiceConfig, logger zerolog.Logger) *DeploymentService {
	return &DeploymentService{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "deployment-service").Logger(),
		now:       time.Now,
		newID:     platform.NewID,
	}
}

// Submit validates difficulty, records a QUEUED deployment and publishes it.
// It returns the new deployment ID, or one of *ValidationError,
// *StorageError or *PublishError.
func (s *DeploymentService) Submit(ctx context.Context, difficulty string) (string, error) {
	d, err := model.ParseDifficulty(difficulty)
	if err != nil {
		metrics.DeploymentsSubmitted.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return "", &ValidationError{Input: difficulty, Err: err}
	}

	// One timestamp for both the row and the event. Postgres stores
	// microseconds, so truncate to keep the two byte-for-byte equal.
	deployment := &model.Deployment{
		ID:          s.newID(),
		RequestedAt: s.now().UTC().Truncate(time.Microsecond),
		Difficulty:  d,
		Status:      model.StatusQueued,
	}
	log := s.logger.With().Str("deployment_id", deployment.ID).Str("difficulty", string(d)).Logger()

	if err := s.insert(ctx, deployment); err != nil {
		metrics.DeploymentsSubmitted.WithLabelValues(metrics.OutcomeStorageError).Inc()
		log.Error().Err(err).Msg("insert deployment failed")
		return "", err
	}

	if err := s.publish(ctx, deployment); err != nil {
		metrics.DeploymentsSubmitted.WithLabelValues(metrics.OutcomePublishError).Inc()
		log.Error().Err(err).Msg("publish deployment request failed")
		s.compensate(ctx, log, deployment.ID)
		return "", &PublishError{DeploymentID: deployment.ID, Err: err}
	}

	metrics.DeploymentsSubmitted.WithLabelValues(metrics.OutcomeAccepted).Inc()
	log.Info().Msg("deployment request queued")
	return deployment.ID, nil
}

func (s *DeploymentService) insert(ctx context.Context, d *model.Deployment) error {
	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	err := s.store.Insert(ctx, d)
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return storageError("insert deployment", d.ID, err)
}

func (s *DeploymentService) publish(ctx context.Context, d *model.Deployment) error {
	ctx, cancel := withTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	start := time.Now()
	err := s.publisher.Publish(ctx, eventbus.Event{
		Source:     s.cfg.Source,
		DetailType: s.cfg.DetailType,
		Detail: model.DeploymentRequested{
			ID:          d.ID,
			Difficulty:  d.Difficulty,
			RequestedAt: d.RequestedAt,
		},
	})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.PublishDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return err
}

// compensate marks id FAILED_PUBLISH once. Its failure is logged and dropped
// so the caller still sees the original publish error. The write runs on a
// context detached from the caller, which may already be cancelled.
func (s *DeploymentService) compensate(ctx context.Context, log zerolog.Logger, id string) {
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()

	if err := s.store.MarkFailedPublish(ctx, id); err != nil {
		metrics.CompensationFailures.Inc()
		log.Error().Err(err).Msg("could not mark deployment FAILED_PUBLISH; record left QUEUED")
		return
	}
	log.Warn().Msg("deployment marked FAILED_PUBLISH")
}

// ListRecent returns the DefaultListLimit most recently requested deployments.
func (s *DeploymentService) ListRecent(ctx context.Context) ([]model.Deployment, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.store.ListRecent(ctx, DefaultListLimit)
}

func (s *DeploymentService) Get(ctx context.Context, id string) (*model.Deployment, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.store.GetByID(ctx, id)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
