// Package ingest turns kafka observation messages into astro-record creates.
// Each message carries one AstroRecordInput as JSON.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/config"
	"github.com/mkarev/suntrack/internal/domain"
	"github.com/mkarev/suntrack/internal/observability"
	"github.com/mkarev/suntrack/internal/pkg/breaker"
	"github.com/mkarev/suntrack/internal/pkg/retry"
)

var (
	ErrBadMessage  = errors.New("bad observation message")
	ErrCreate      = errors.New("create failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Service interface {
	Create(ctx context.Context, in domain.AstroRecordInput) (*domain.AstroRecord, error)
}

type Handler struct {
	service     Service
	breaker     *breaker.Breaker
	retryPolicy config.Retry
	logger      *zap.Logger
	metrics     observability.Metrics
}

func NewHandler(service Service, brk *breaker.Breaker, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *Handler {
	return &Handler{
		service:     service,
		breaker:     brk,
		retryPolicy: retryPolicy,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle processes a single message. The consumer commits the offset itself
// after a nil return.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	start := time.Now()

	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var in domain.AstroRecordInput
	if err := json.Unmarshal(message.Value, &in); err != nil {
		h.logger.Error("bad observation payload",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(start), false)
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if in.Date.IsZero() {
		h.logger.Error("observation missing date",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(start), false)
		return ErrBadMessage
	}

	var created *domain.AstroRecord
	err := retry.Do(ctx, h.retryPolicy, func() error {
		var err error
		created, err = h.service.Create(ctx, in)
		// Validation never heals on retry.
		if errors.Is(err, domain.ErrValidation) {
			return nil
		}
		return err
	})
	if err == nil && created == nil {
		err = fmt.Errorf("%w: invalid observation", ErrBadMessage)
	}
	if err != nil {
		h.logger.Error("observation ingest failed",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(start), false)
		if errors.Is(err, ErrBadMessage) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCreate, err)
	}

	h.breaker.Success()
	h.metrics.ObserveIngest(sinceMs(start), true)
	h.logger.Info("observation ingested",
		zap.Int("record_id", created.ID),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
