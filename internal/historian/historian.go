// internal/historian/historian.go pops attempt events from the Redis queue and
// persists them to postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// Source yields raw queue payloads. cache.AttemptQueue implements it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// Sink stores attempts. database.Store implements it.
type Sink interface {
	InsertAttempts(ctx context.Context, attempts []models.Attempt) error
}

// Backlog is implemented by sources that can report how many payloads are waiting.
type Backlog interface {
	Len(ctx context.Context) (int64, error)
}

// Rejected reports whether err is a data or constraint error from postgres,
// i.e. retrying the same row will never succeed.
func Rejected(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	class := pgErr.Code[:min(2, len(pgErr.Code))]
	return class == "22" || class == "23"
}

// Service batches attempts between the queue and the database.
type Service struct {
	Source     Source
	Sink       Sink
	BatchSize  int
	FlushEvery time.Duration
	PopTimeout time.Duration
	Log        logrus.FieldLogger

	batch     []models.Attempt
	lastFlush time.Time
}

func NewService(src Source, sink Sink, batchSize int, flushEvery time.Duration, logger logrus.FieldLogger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushEvery <= 0 {
		flushEvery = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		Source:     src,
		Sink:       sink,
		BatchSize:  batchSize,
		FlushEvery: flushEvery,
		PopTimeout: 3 * time.Second,
		Log:        logger,
		batch:      make([]models.Attempt, 0, batchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	s.Log.WithFields(s.backlogFields(ctx)).Info("historian started")
	s.lastFlush = time.Now()

	for {
		if ctx.Err() != nil {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx)
			cancel()
			s.Log.Info("historian stopped")
			return nil
		}

		payload, err := s.Source.Pop(ctx, s.PopTimeout)
		switch {
		case err == nil:
			s.handle(payload)
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			// nothing arrived
		default:
			s.Log.WithError(err).Error("BLPop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}

		if len(s.batch) >= s.BatchSize || (len(s.batch) > 0 && time.Since(s.lastFlush) >= s.FlushEvery) {
			s.flush(ctx)
		}
	}
}

func (s *Service) handle(payload string) {
	var a models.Attempt
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		s.Log.WithError(err).Warn("dropping malformed attempt")
		return
	}
	if a.ID == uuid.Nil || a.UserID == uuid.Nil || a.DealID == uuid.Nil {
		s.Log.WithField("payload", payload).Warn("dropping attempt without ids")
		return
	}
	s.batch = append(s.batch, a)
}

func (s *Service) backlogFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{"pending": len(s.batch)}
	if b, ok := s.Source.(Backlog); ok {
		if n, err := b.Len(ctx); err == nil {
			fields["queued"] = n
		}
	}
	return fields
}

// flush writes the pending batch. If the batch is refused its attempts are
// retried one by one: rows postgres rejects are dropped, and everything from
// the first transient failure on is kept for the next flush, up to ten batches' worth.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}
	err := s.Sink.InsertAttempts(ctx, s.batch)
	if err == nil {
		s.Log.WithField("count", len(s.batch)).Debug("flushed attempts")
		s.batch = s.batch[:0]
		return
	}
	s.Log.WithError(err).WithField("pending", len(s.batch)).Warn("batch insert failed, retrying attempts singly")

	kept := s.batch[:0]
	for i, a := range s.batch {
		err := s.Sink.InsertAttempts(ctx, []models.Attempt{a})
		if err == nil {
			continue
		}
		if Rejected(err) {
			s.Log.WithError(err).WithFields(logrus.Fields{"attempt": a.ID, "user": a.UserID, "deal": a.DealID}).
				Warn("dropping attempt rejected by the database")
			continue
		}
		kept = append(kept, s.batch[i:]...)
		s.Log.WithError(err).WithFields(s.backlogFields(ctx)).Error("flush failed")
		break
	}
	s.batch = kept

	if limit := 10 * s.BatchSize; len(s.batch) > limit {
		dropped := len(s.batch) - limit
		s.batch = append(s.batch[:0], s.batch[dropped:]...)
		s.Log.WithField("dropped", dropped).Warn("attempt backlog trimmed")
	}
}
