package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/bridgetrainer/internal/auth"
	"github.com/jason-s-yu/bridgetrainer/internal/bridge"
	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/quiz"
	"github.com/jason-s-yu/bridgetrainer/internal/render"
)

// memStore is an in-memory stand-in for database.Store.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	deals    map[uuid.UUID]*models.Deal
	order    []uuid.UUID
	attempts []models.Attempt
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*models.User{}, deals: map[uuid.UUID]*models.Deal{}}
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Username == u.Username {
			return database.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Rating == 0 {
		u.Rating = 1200
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) AuthenticateUser(_ context.Context, username, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && !u.IsEphemeral && u.Password == password {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrInvalidCredentials
}

func (m *memStore) ClaimUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok || !stored.IsEphemeral {
		return database.ErrNotFound
	}
	stored.Username, stored.Password, stored.IsEphemeral = u.Username, u.Password, false
	return nil
}

func (m *memStore) ListAttempts(_ context.Context, userID uuid.UUID, limit int) ([]models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Attempt
	for i := len(m.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if m.attempts[i].UserID == userID {
			out = append(out, m.attempts[i])
		}
	}
	return out, nil
}

func (m *memStore) PublishAttempt(_ context.Context, a models.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memStore) InsertDeal(_ context.Context, d *models.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, ok := m.deals[d.ID]; ok {
		return database.ErrConflict
	}
	cp := *d
	m.deals[d.ID] = &cp
	m.order = append(m.order, d.ID)
	return nil
}

func (m *memStore) InsertDeals(ctx context.Context, deals []*models.Deal) error {
	for _, d := range deals {
		if err := m.InsertDeal(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) GetDeal(_ context.Context, id uuid.UUID) (*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) ListDeals(_ context.Context) ([]*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Deal
	for _, id := range m.order {
		cp := *m.deals[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) EditDeal(_ context.Context, id uuid.UUID, edit func(*models.Deal) error) (*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *d
	if err := edit(&cp); err != nil {
		return nil, err
	}
	m.deals[id] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) DeleteAllDeals(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.deals))
	m.deals = map[uuid.UUID]*models.Deal{}
	m.order = nil
	return n, nil
}

func (m *memStore) RandomDeal(ctx context.Context, exclude uuid.UUID) (*models.Deal, error) {
	m.mu.Lock()
	var pick uuid.UUID
	for _, id := range m.order {
		if id != exclude || len(m.order) == 1 {
			pick = id
			break
		}
	}
	m.mu.Unlock()
	if pick == uuid.Nil {
		return nil, database.ErrNotFound
	}
	return m.GetDeal(ctx, pick)
}

func (m *memStore) UpdateRatings(_ context.Context, userID, dealID uuid.UUID, fn func(float64, float64) (float64, float64)) (models.RatingChange, models.RatingChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, d := m.users[userID], m.deals[dealID]
	if u == nil || d == nil {
		return models.RatingChange{}, models.RatingChange{}, database.ErrNotFound
	}
	uc := models.RatingChange{Before: u.Rating}
	dc := models.RatingChange{Before: d.Rating}
	uc.After, dc.After = fn(u.Rating, d.Rating)
	u.Rating, d.Rating = uc.After, dc.After
	return uc, dc, nil
}

var sampleInput = bridge.DealInput{
	North:         "Q62 AK62 AQ5 K32",
	South:         "AKJT5 Q73 74 875",
	West:          "983 T5 J9863 J96",
	East:          "74 J984 KT2 AQT4",
	Dealer:        "N",
	Auction:       "1S P 2S P 4S P P P",
	Context:       "Contract: 4S. West leads the CJ. Which suit do you play at trick two?",
	CorrectAnswer: "H",
	HiddenHands:   "EW",
}

type testEnv struct {
	srv     *APIServer
	store   *memStore
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	store := newMemStore()
	issuer, err := auth.NewIssuer(time.Hour)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := &APIServer{
		Users:    store,
		Deals:    store,
		Trainer:  quiz.NewTrainer(store, store, 0, logger),
		Tokens:   issuer,
		Renderer: render.DefaultRenderer,
		Log:      logger,
	}
	return &testEnv{srv: srv, store: store, handler: srv.Routes()}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// user registers and logs in a user, returning its token.
func (e *testEnv) user(t *testing.T, name string, admin bool) string {
	t.Helper()
	u := &models.User{Username: name, Password: "pw", IsAdmin: admin}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	tok, err := e.srv.Tokens.CreateToken(u.ID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) addDeal(t *testing.T) *models.Deal {
	t.Helper()
	d, err := sampleInput.Build()
	require.NoError(t, err)
	require.NoError(t, e.store.InsertDeal(context.Background(), d))
	return d
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestPing(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestCreateUserAndLogin(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/user/create", credentials{Username: "alice", Password: "pw"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u models.User
	decode(t, rec, &u)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.Password)

	rec = e.do(t, http.MethodPost, "/user/create", credentials{Username: "alice", Password: "pw"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/user/create", credentials{Username: "", Password: "pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/user/login", credentials{Username: "alice", Password: "nope"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/user/login", credentials{Username: "alice", Password: "pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login loginResponse
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = e.do(t, http.MethodGet, "/user/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &u)
	assert.Equal(t, 1200.0, u.Rating)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/user/me", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/problem/next", nil, "forged").Code)
}

func TestGuestTrainingFlow(t *testing.T) {
	e := newTestEnv(t)
	deal := e.addDeal(t)

	rec := e.do(t, http.MethodPost, "/user/guest", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var guest loginResponse
	decode(t, rec, &guest)
	assert.True(t, guest.User.IsEphemeral)
	assert.True(t, strings.HasPrefix(guest.User.Username, "guest-"))

	rec = e.do(t, http.MethodGet, "/problem/next", nil, guest.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p problemResponse
	decode(t, rec, &p)
	assert.Equal(t, deal.ID, p.DealID)
	assert.Equal(t, "text", p.Format)
	assert.Contains(t, p.Diagram, "♠ Q62")
	assert.NotContains(t, p.Diagram, "J9863", "west is hidden")
	assert.Contains(t, p.Diagram, "N   E   S   W")

	rec = e.do(t, http.MethodPost, "/problem/answer", answerRequest{DealID: deal.ID, Answer: " h "}, guest.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res quiz.Result
	decode(t, rec, &res)
	assert.True(t, res.Correct)
	assert.Equal(t, 1215.0, res.UserRating.After)
	assert.Equal(t, 1185.0, res.DealRating.After)

	rec = e.do(t, http.MethodPost, "/problem/answer", answerRequest{DealID: deal.ID, Answer: "H"}, guest.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "nothing pending any more")

	rec = e.do(t, http.MethodGet, "/user/attempts", nil, guest.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var attempts []models.Attempt
	decode(t, rec, &attempts)
	require.Len(t, attempts, 1)
	assert.Equal(t, res.AttemptID, attempts[0].ID)

	rec = e.do(t, http.MethodPost, "/user/claim", credentials{Username: "carol", Password: "pw"}, guest.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/user/claim", credentials{Username: "carol2", Password: "pw"}, guest.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/user/login", credentials{Username: "carol", Password: "pw"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNextProblemFormats(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "bob", false)

	rec := e.do(t, http.MethodGet, "/problem/next", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no deals stored")

	e.addDeal(t)
	rec = e.do(t, http.MethodGet, "/problem/next?format=html", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var p problemResponse
	decode(t, rec, &p)
	assert.Equal(t, "html", p.Format)
	assert.Contains(t, p.Diagram, `<table class="diagram">`)

	rec = e.do(t, http.MethodGet, "/problem/next?format=pdf", nil, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerValidation(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "bob", false)
	deal := e.addDeal(t)

	rec := e.do(t, http.MethodPost, "/problem/answer", answerRequest{DealID: deal.ID}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/problem/answer", answerRequest{DealID: deal.ID, Answer: "H"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), quiz.ErrNoPendingProblem.Error())

	e.do(t, http.MethodGet, "/problem/next", nil, tok)
	rec = e.do(t, http.MethodPost, "/problem/answer", answerRequest{DealID: uuid.New(), Answer: "H"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), quiz.ErrProblemMismatch.Error())
}

func TestAnswerPendingProblemWithoutDealID(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "bob", false)
	deal := e.addDeal(t)

	rec := e.do(t, http.MethodPost, "/problem/answer", answerRequest{Answer: "H"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), quiz.ErrNoPendingProblem.Error())

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/problem/next", nil, tok).Code)
	rec = e.do(t, http.MethodPost, "/problem/answer", answerRequest{Answer: "H"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res quiz.Result
	decode(t, rec, &res)
	assert.Equal(t, deal.ID, res.DealID)
	assert.True(t, res.Correct)
	assert.Equal(t, 0, e.srv.Trainer.Sessions.Len())
}

func TestDealAdminRequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "bob", false)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/deals", nil, tok).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/deals", sampleInput, tok).Code)
}

func TestDealAdministration(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "admin", true)

	rec := e.do(t, http.MethodPost, "/deals", sampleInput, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var deal models.Deal
	decode(t, rec, &deal)
	assert.Equal(t, 1200.0, deal.Rating)
	assert.Equal(t, "EW", deal.HiddenHands)

	bad := sampleInput
	bad.West = "983 T5 J9863 J9"
	rec = e.do(t, http.MethodPost, "/deals", bad, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/deals/" + deal.ID.String()
	rec = e.do(t, http.MethodGet, path, nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/deals/not-a-uuid", nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/deals/"+uuid.New().String(), nil, tok).Code)

	rec = e.do(t, http.MethodPatch, path, editRequest{Field: "hidden_hands", Value: "e"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &deal)
	assert.Equal(t, "E", deal.HiddenHands)

	// a rating stored after the deal was last read survives the edit
	e.store.mu.Lock()
	e.store.deals[deal.ID].Rating = 1185
	e.store.mu.Unlock()
	rec = e.do(t, http.MethodPatch, path, editRequest{Field: "notes", Value: "count trumps"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &deal)
	assert.Equal(t, 1185.0, deal.Rating)
	assert.Equal(t, "count trumps", deal.Notes)

	rec = e.do(t, http.MethodPatch, path, editRequest{Field: "colour", Value: "red"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPatch, path, editRequest{Field: "north", Value: "AKQ"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPatch, "/deals/"+uuid.New().String(), editRequest{Field: "notes", Value: "x"}, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, path+"/diagram", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "J9863", "west is visible after the edit")
	assert.NotContains(t, rec.Body.String(), "J984")

	rec = e.do(t, http.MethodGet, path+"/diagram?reveal=true&format=html", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "J984")
}

func TestExportImportReset(t *testing.T) {
	e := newTestEnv(t)
	tok := e.user(t, "admin", true)
	e.addDeal(t)
	e.addDeal(t)

	rec := e.do(t, http.MethodGet, "/deals/export", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hands.json")
	var exported []*models.Deal
	decode(t, rec, &exported)
	require.Len(t, exported, 2)

	rec = e.do(t, http.MethodDelete, "/deals", nil, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodDelete, "/deals?confirm=true", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/deals/import", exported, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"imported":2}`, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/deals/import", exported[:1], tok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	broken := *exported[0]
	broken.ID = uuid.New()
	broken.NorthHand = broken.NorthHand[:12]
	rec = e.do(t, http.MethodPost, "/deals/import", []*models.Deal{&broken}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/deals", nil, tok)
	var listed []*models.Deal
	decode(t, rec, &listed)
	assert.Len(t, listed, 2)
}
