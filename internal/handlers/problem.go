package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jason-s-yu/bridgetrainer/internal/middleware"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/quiz"
)

var errBadFormat = errors.New("format must be text or html")

type problemResponse struct {
	DealID  uuid.UUID `json:"deal_id"`
	Dealer  string    `json:"dealer,omitempty"`
	Rating  float64   `json:"elo"`
	Format  string    `json:"format"`
	Diagram string    `json:"diagram"`
}

// renderDeal draws deal as text (the default) or html.
func (s *APIServer) renderDeal(deal *models.Deal, reveal bool, format string) (string, string, error) {
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "html" {
		return "", "", errBadFormat
	}
	d, err := s.Renderer.FromDeal(deal, reveal)
	if err != nil {
		return "", "", err
	}
	if format == "html" {
		out, err := d.HTML()
		return out, format, err
	}
	return d.Text(), format, nil
}

// NextProblemHandler serves a random deal with its hidden seats blanked out.
// ?format=html returns an html table instead of the text diagram.
func (s *APIServer) NextProblemHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "text" && format != "html" {
		http.Error(w, errBadFormat.Error(), http.StatusBadRequest)
		return
	}

	id, _ := middleware.UserID(r.Context())
	deal, err := s.Trainer.NextProblem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "no problem available")
		return
	}
	diagram, format, err := s.renderDeal(deal, false, format)
	if err != nil {
		s.fail(w, r, err, "failed to render deal")
		return
	}
	writeJSON(w, http.StatusOK, problemResponse{
		DealID:  deal.ID,
		Dealer:  deal.Dealer,
		Rating:  deal.Rating,
		Format:  format,
		Diagram: diagram,
	})
}

type answerRequest struct {
	DealID uuid.UUID `json:"deal_id"`
	Answer string    `json:"answer"`
}

// AnswerHandler scores the answer to the caller's pending problem.
// deal_id may be left out to answer whatever problem is pending.
//
// Request payload:
//
//	{
//	  "deal_id": "{uuid}",
//	  "answer": "H"
//	}
func (s *APIServer) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid answer payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		http.Error(w, "answer is required", http.StatusBadRequest)
		return
	}

	id, _ := middleware.UserID(r.Context())
	if req.DealID == uuid.Nil {
		pending, ok := s.Trainer.Pending(id)
		if !ok {
			s.fail(w, r, quiz.ErrNoPendingProblem, "no problem is waiting for an answer")
			return
		}
		req.DealID = pending
	}
	res, err := s.Trainer.SubmitAnswer(r.Context(), id, req.DealID, req.Answer)
	if err != nil {
		s.fail(w, r, err, "failed to score answer")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
