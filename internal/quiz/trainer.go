// internal/quiz/trainer.go
package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/rating"
)

var (
	ErrNoPendingProblem = errors.New("no problem is waiting for an answer")
	ErrProblemMismatch  = errors.New("answer is for a different problem")
)

// Store is the persistence the trainer needs. database.Store implements it.
type Store interface {
	RandomDeal(ctx context.Context, exclude uuid.UUID) (*models.Deal, error)
	GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	// UpdateRatings locks both rows, applies fn to the current ratings and stores the result.
	UpdateRatings(ctx context.Context, userID, dealID uuid.UUID, fn func(userRating, dealRating float64) (float64, float64)) (user, deal models.RatingChange, err error)
}

// Publisher receives attempt events. cache.AttemptQueue implements it.
type Publisher interface {
	PublishAttempt(ctx context.Context, a models.Attempt) error
}

// Result is what the user sees after answering.
type Result struct {
	AttemptID     uuid.UUID           `json:"attempt_id"`
	DealID        uuid.UUID           `json:"deal_id"`
	Correct       bool                `json:"correct"`
	CorrectAnswer string              `json:"correct_answer"`
	UserRating    models.RatingChange `json:"user_rating"`
	DealRating    models.RatingChange `json:"deal_rating"`
}

// Trainer serves problems and scores answers. It is safe for concurrent use.
type Trainer struct {
	Store     Store
	Sessions  *SessionStore
	Publisher Publisher // optional
	K         float64
	Log       logrus.FieldLogger
}

func NewTrainer(store Store, pub Publisher, k float64, logger logrus.FieldLogger) *Trainer {
	if k <= 0 {
		k = rating.DefaultK
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Trainer{
		Store:     store,
		Sessions:  NewSessionStore(),
		Publisher: pub,
		K:         k,
		Log:       logger,
	}
}

// NextProblem picks a random deal for the user, avoiding the one served last,
// and makes it the user's pending problem.
func (t *Trainer) NextProblem(ctx context.Context, userID uuid.UUID) (*models.Deal, error) {
	deal, err := t.Store.RandomDeal(ctx, t.Sessions.Last(userID))
	if err != nil {
		return nil, fmt.Errorf("pick deal: %w", err)
	}
	t.Sessions.Put(userID, deal.ID)
	t.Log.WithFields(logrus.Fields{"user": userID, "deal": deal.ID}).Debug("problem issued")
	return deal, nil
}

// Pending returns the deal the user has been given and not yet answered.
func (t *Trainer) Pending(userID uuid.UUID) (uuid.UUID, bool) {
	p, ok := t.Sessions.Peek(userID)
	return p.DealID, ok
}

// SubmitAnswer scores the user's answer to their pending problem and updates both ratings.
func (t *Trainer) SubmitAnswer(ctx context.Context, userID, dealID uuid.UUID, answer string) (*Result, error) {
	pending, err := t.Sessions.Take(userID, dealID)
	if err != nil {
		return nil, err
	}

	deal, err := t.Store.GetDeal(ctx, dealID)
	if err != nil {
		// give the problem back so the user can retry
		t.Sessions.Put(userID, dealID)
		return nil, fmt.Errorf("load deal: %w", err)
	}

	correct := CheckAnswer(answer, deal.CorrectAnswer)
	userChange, dealChange, err := t.Store.UpdateRatings(ctx, userID, dealID, func(userRating, dealRating float64) (float64, float64) {
		return rating.Update(userRating, dealRating, correct, t.K)
	})
	if err != nil {
		t.Sessions.Put(userID, dealID)
		return nil, fmt.Errorf("update ratings: %w", err)
	}

	attempt := models.Attempt{
		ID:         uuid.New(),
		UserID:     userID,
		DealID:     dealID,
		Answer:     answer,
		Correct:    correct,
		UserRating: userChange,
		DealRating: dealChange,
		CreatedAt:  time.Now(),
	}
	t.publish(ctx, attempt)

	t.Log.WithFields(logrus.Fields{
		"user":     userID,
		"deal":     dealID,
		"correct":  correct,
		"elapsed":  time.Since(pending.IssuedAt).Round(time.Millisecond),
		"user_elo": userChange.After,
		"deal_elo": dealChange.After,
	}).Info("answer scored")

	return &Result{
		AttemptID:     attempt.ID,
		DealID:        dealID,
		Correct:       correct,
		CorrectAnswer: deal.CorrectAnswer,
		UserRating:    userChange,
		DealRating:    dealChange,
	}, nil
}

func (t *Trainer) publish(ctx context.Context, a models.Attempt) {
	if t.Publisher == nil {
		return
	}
	if err := t.Publisher.PublishAttempt(ctx, a); err != nil {
		t.Log.WithError(err).WithField("attempt", a.ID).Warn("failed to publish attempt")
	}
}
