package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// maxImportBytes bounds the body of /deals/import.
const maxImportBytes = 8 << 20

func dealID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *APIServer) ListDealsHandler(w http.ResponseWriter, r *http.Request) {
	deals, err := s.Deals.ListDeals(r.Context())
	if err != nil {
		s.fail(w, r, err, "failed to list deals")
		return
	}
	if deals == nil {
		deals = []*models.Deal{}
	}
	writeJSON(w, http.StatusOK, deals)
}

// CreateDealHandler parses a bridge.DealInput and stores the new deal.
func (s *APIServer) CreateDealHandler(w http.ResponseWriter, r *http.Request) {
	var in bridge.DealInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid deal payload", http.StatusBadRequest)
		return
	}
	deal, err := in.Build()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Deals.InsertDeal(r.Context(), deal); err != nil {
		s.fail(w, r, err, "failed to store deal")
		return
	}
	s.Log.WithField("deal", deal.ID).Info("deal added")
	writeJSON(w, http.StatusCreated, deal)
}

func (s *APIServer) GetDealHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	deal, err := s.Deals.GetDeal(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "deal not found")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

type editRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// EditDealHandler changes one field of a deal, e.g. {"field": "w_hand", "value": "983 T5 J9863 J96"}.
func (s *APIServer) EditDealHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid edit payload", http.StatusBadRequest)
		return
	}
	field, err := bridge.ParseField(req.Field)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var editErr error
	deal, err := s.Deals.EditDeal(r.Context(), id, func(d *models.Deal) error {
		editErr = bridge.ApplyEdit(d, field, req.Value)
		return editErr
	})
	if editErr != nil {
		http.Error(w, editErr.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.fail(w, r, err, "failed to update deal")
		return
	}
	s.Log.WithFields(logrus.Fields{"deal": id, "field": field}).Info("deal edited")
	writeJSON(w, http.StatusOK, deal)
}

// DealDiagramHandler renders a stored deal. ?reveal=true shows the hidden seats.
func (s *APIServer) DealDiagramHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	deal, err := s.Deals.GetDeal(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "deal not found")
		return
	}
	q := r.URL.Query()
	out, format, err := s.renderDeal(deal, q.Get("reveal") == "true", q.Get("format"))
	if errors.Is(err, errBadFormat) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.fail(w, r, err, "failed to render deal")
		return
	}
	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write([]byte(out))
}

// ResetDealsHandler deletes every deal. It requires ?confirm=true.
func (s *APIServer) ResetDealsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "add ?confirm=true to delete every deal", http.StatusBadRequest)
		return
	}
	n, err := s.Deals.DeleteAllDeals(r.Context())
	if err != nil {
		s.fail(w, r, err, "failed to delete deals")
		return
	}
	s.Log.WithField("deleted", n).Warn("all deals deleted")
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// ExportDealsHandler downloads every deal in the hands.json format.
func (s *APIServer) ExportDealsHandler(w http.ResponseWriter, r *http.Request) {
	deals, err := s.Deals.ListDeals(r.Context())
	if err != nil {
		s.fail(w, r, err, "failed to export deals")
		return
	}
	if deals == nil {
		deals = []*models.Deal{}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="hands.json"`)
	writeJSON(w, http.StatusOK, deals)
}

// ImportDealsHandler stores a hands.json array. Either every deal is stored or none.
func (s *APIServer) ImportDealsHandler(w http.ResponseWriter, r *http.Request) {
	var deals []*models.Deal
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&deals); err != nil {
		http.Error(w, "invalid deals payload", http.StatusBadRequest)
		return
	}
	if err := bridge.PrepareImport(deals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Deals.InsertDeals(r.Context(), deals); err != nil {
		s.fail(w, r, err, "failed to import deals")
		return
	}
	s.Log.WithField("count", len(deals)).Info("deals imported")
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(deals)})
}
