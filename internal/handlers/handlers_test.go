package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/middleware"
	"github.com/nikhil/begreen/internal/models"
	challengeService "github.com/nikhil/begreen/internal/service/challenge"
	"github.com/nikhil/begreen/internal/session"
)

var caller = &session.Claims{UserID: "u-alex", Email: "alex@example.com", Name: "Alex"}

// authenticated stands in for the auth middleware.
func authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), caller)))
	})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type fakeTeamManager struct {
	gotNaming string
	gotSearch string
	err       error
}

func (f *fakeTeamManager) List(_ context.Context, _ models.Principal, naming, search string) ([]models.Team, error) {
	f.gotNaming, f.gotSearch = naming, search
	return []models.Team{{ID: "t1", Name: "WG"}}, f.err
}

func (f *fakeTeamManager) Overview(context.Context, models.Principal, string) ([]models.Section[models.TeamItem], error) {
	return []models.Section[models.TeamItem]{{ID: "groups", Title: "Gruppen"}}, f.err
}

func (f *fakeTeamManager) Get(_ context.Context, _ models.Principal, teamID string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Team{ID: teamID}, nil
}

func (f *fakeTeamManager) CreateGroup(_ context.Context, user models.Principal, name string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Team{ID: "t-new", Name: name, Type: models.TeamTypeGroup, CreatedBy: user.UserID}, nil
}

func (f *fakeTeamManager) CreateChat(context.Context, models.Principal, string) (*models.Team, error) {
	return nil, f.err
}

func (f *fakeTeamManager) Rename(_ context.Context, _ models.Principal, teamID, name string) (*models.Team, error) {
	return &models.Team{ID: teamID, Name: name}, f.err
}

func (f *fakeTeamManager) Delete(context.Context, models.Principal, string) error {
	return f.err
}

func teamRouter(service TeamManager) *mux.Router {
	h := NewTeamHandler(service, logger.NewNop())
	router := mux.NewRouter()
	router.Use(authenticated)
	router.HandleFunc("/teams", h.GetUserTeams).Methods(http.MethodGet)
	router.HandleFunc("/teams/group", h.CreateGroup).Methods(http.MethodPost)
	router.HandleFunc("/teams/{id}", h.GetTeam).Methods(http.MethodGet)
	router.HandleFunc("/teams/{id}", h.DeleteTeam).Methods(http.MethodDelete)
	return router
}

func TestGetUserTeamsDefaultsToShortNaming(t *testing.T) {
	service := &fakeTeamManager{}
	rec := do(t, teamRouter(service), http.MethodGet, "/teams?search=wg", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.NamingShort, service.gotNaming)
	assert.Equal(t, "wg", service.gotSearch)
	assert.JSONEq(t, `{"teams":[{"id":"t1","name":"WG","type":"","created_by":"","created_at":0,"updated_at":0}]}`, rec.Body.String())
}

func TestCreateGroup(t *testing.T) {
	rec := do(t, teamRouter(&fakeTeamManager{}), http.MethodPost, "/teams/group", `{"name":"WG"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var team models.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	assert.Equal(t, "WG", team.Name)
	assert.Equal(t, caller.UserID, team.CreatedBy)
}

func TestCreateGroupRejectsMalformedBody(t *testing.T) {
	rec := do(t, teamRouter(&fakeTeamManager{}), http.MethodPost, "/teams/group", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{models.ErrNotFound, http.StatusNotFound, `{"error":"not found"}`},
		{models.ErrForbidden, http.StatusForbidden, `{"error":"forbidden"}`},
		{fmt.Errorf("%w: name is required", models.ErrInvalidInput), http.StatusBadRequest, `{"error":"invalid input: name is required"}`},
		{models.ErrConflict, http.StatusConflict, `{"error":"already exists"}`},
		{models.ErrUnauthorized, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{errors.New("connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := do(t, teamRouter(&fakeTeamManager{err: tt.err}), http.MethodGet, "/teams/t1", "")
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestDeleteTeam(t *testing.T) {
	rec := do(t, teamRouter(&fakeTeamManager{}), http.MethodDelete, "/teams/t1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	h := NewTeamHandler(&fakeTeamManager{}, logger.NewNop())
	rec := httptest.NewRecorder()
	h.GetUserTeams(rec, httptest.NewRequest(http.MethodGet, "/teams", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeChallengeManager struct {
	challengeService.CreateInput
	settled []string
}

func (f *fakeChallengeManager) Create(_ context.Context, _ models.Principal, input challengeService.CreateInput) (*models.Challenge, error) {
	f.CreateInput = input
	return &models.Challenge{ID: "c1", Title: input.Title, Score: input.Score}, nil
}

func (f *fakeChallengeManager) ListForContainer(context.Context, models.Principal, string, string) ([]models.Section[models.ChallengeItem], error) {
	return nil, nil
}

func (f *fakeChallengeManager) ListForUser(context.Context, models.Principal, string) ([]models.Section[models.ChallengeItem], error) {
	return []models.Section[models.ChallengeItem]{{ID: "u-alex", Title: "Aktiv", Items: []models.ChallengeItem{{Challenge: models.Challenge{ID: "c1"}, AssignedAt: 5}}}}, nil
}

func (f *fakeChallengeManager) Assign(_ context.Context, _ models.Principal, challengeID, assignee string) (*models.Assignment, error) {
	return &models.Assignment{ID: "a1", ChallengeID: challengeID, Assignee: assignee}, nil
}

func (f *fakeChallengeManager) Finish(_ context.Context, _ models.Principal, challengeID, assignee string) (*models.Preview, error) {
	f.settled = append(f.settled, "finish:"+challengeID+":"+assignee)
	return &models.Preview{ID: assignee, Score: 20}, nil
}

func (f *fakeChallengeManager) Cancel(_ context.Context, _ models.Principal, challengeID, assignee string) (*models.Preview, error) {
	f.settled = append(f.settled, "cancel:"+challengeID+":"+assignee)
	return &models.Preview{ID: assignee}, nil
}

func (f *fakeChallengeManager) Delete(context.Context, models.Principal, string) error {
	return nil
}

func challengeRouter(service ChallengeManager) *mux.Router {
	h := NewChallengeHandler(service, logger.NewNop())
	router := mux.NewRouter()
	router.Use(authenticated)
	router.HandleFunc("/challenges", h.GetUserChallenges).Methods(http.MethodGet)
	router.HandleFunc("/challenges", h.CreateChallenge).Methods(http.MethodPost)
	router.HandleFunc("/challenges/{id}/assign", h.AssignChallenge).Methods(http.MethodPost)
	router.HandleFunc("/challenges/{id}/finish", h.FinishChallenge).Methods(http.MethodPost)
	router.HandleFunc("/challenges/{id}/cancel", h.CancelChallenge).Methods(http.MethodPost)
	return router
}

func TestChallengeEndpoints(t *testing.T) {
	service := &fakeChallengeManager{}
	router := challengeRouter(service)

	rec := do(t, router, http.MethodPost, "/challenges", `{"title":"Fahrrad","score":20,"duration":"1 Tag"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1 Tag", service.Duration)

	rec = do(t, router, http.MethodGet, "/challenges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sections []models.Section[models.ChallengeItem] `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sections, 1)
	assert.Equal(t, int64(5), body.Sections[0].Items[0].AssignedAt)

	rec = do(t, router, http.MethodPost, "/challenges/c1/assign", `{"assignee":"t1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/challenges/c1/finish", `{"assignee":"t1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"t1","score":20,"created_at":0,"updated_at":0}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/challenges/c1/cancel", `{"assignee":"u-alex"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"finish:c1:t1", "cancel:c1:u-alex"}, service.settled)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, logger.NewNop()).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}, logger.NewNop()).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRespondWithJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	rec := httptest.NewRecorder()
	respondWithJSON(rec, log, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to encode response", logs.All()[0].Message)
}
