package valuationservice

import (
	"context"
	"fmt"
	"time"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/metrics"
	"github.com/kedr891/skin-portfolio/internal/models"
)

type Service struct {
	storage  domain.ValuationStorage
	producer domain.MessageProducer
	log      domain.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithProducer - публиковать GroupValuationEvent по каждой новой точке
func WithProducer(producer domain.MessageProducer) Option {
	return func(s *Service) {
		s.producer = producer
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(storage domain.ValuationStorage, log domain.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		log:     log,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RefreshGroupValuations - дописать по одной точке оценки на каждую группу.
// Если за сегодня точек уже столько же, сколько групп, возвращает ErrAlreadyDone.
func (s *Service) RefreshGroupValuations(ctx context.Context) error {
	startTime := time.Now()
	now := s.now().UTC()

	today, err := s.storage.CountGroupValuationPointsForDay(ctx, now)
	if err != nil {
		return fmt.Errorf("count today's valuation points: %w", err)
	}

	groupsCount, err := s.storage.CountActiveGroups(ctx)
	if err != nil {
		return fmt.Errorf("count active groups: %w", err)
	}

	if today == groupsCount {
		return fmt.Errorf("%w: %d valuation points for %d groups", domain.ErrAlreadyDone, today, groupsCount)
	}

	groups, err := s.storage.ListActiveGroups(ctx)
	if err != nil {
		return fmt.Errorf("list active groups: %w", err)
	}

	points := make([]models.ActiveGroupValuationPoint, 0, len(groups))
	for _, group := range groups {
		points = append(points, models.ActiveGroupValuationPoint{
			GroupID:    group.ID,
			Sum:        group.UserTotal(),
			RecordedAt: now,
		})
	}

	if err := s.storage.AppendGroupValuationPoints(ctx, points); err != nil {
		return fmt.Errorf("append valuation points: %w", err)
	}

	metrics.ValuationPointsTotal.Add(float64(len(points)))

	for i, point := range points {
		s.publish(ctx, groups[i], point)
	}

	s.log.Info("Group valuations refreshed",
		"groups", len(groups),
		"points", len(points),
		"elapsed", time.Since(startTime),
	)

	return nil
}

func (s *Service) publish(ctx context.Context, group models.ActiveGroup, point models.ActiveGroupValuationPoint) {
	if s.producer == nil {
		return
	}

	event := models.NewGroupValuationEvent(group, point)
	if err := s.producer.WriteMessage(ctx, fmt.Sprintf("group:%d", group.ID), event); err != nil {
		s.log.Error("Failed to send valuation event", "group_id", group.ID, "error", err)
	}
}
