package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riorajhon/block-vote/internal/chain"
	db_connection "github.com/riorajhon/block-vote/internal/database/connection"
	repositories "github.com/riorajhon/block-vote/internal/database/repositories"
	"github.com/riorajhon/block-vote/internal/election"
	"github.com/riorajhon/block-vote/internal/votes"
)

// stubGateway answers every chain call successfully, assigning sequential
// chain election ids.
type stubGateway struct {
	nextChainId int64
}

func (g *stubGateway) CreateElection(ctx context.Context, candidateIds []int64) (int64, error) {
	g.nextChainId++
	return g.nextChainId, nil
}

func (g *stubGateway) StartElection(ctx context.Context, chainElectionId int64) error { return nil }
func (g *stubGateway) EndElection(ctx context.Context, chainElectionId int64) error   { return nil }
func (g *stubGateway) ApproveVoter(ctx context.Context, nationalId string) error      { return nil }

func (g *stubGateway) RegisterVoter(ctx context.Context, nationalId string, walletAddress string) error {
	return nil
}

func (g *stubGateway) AddCandidate(ctx context.Context, name string, age int, nationalId string, qualification string) error {
	return nil
}

func (g *stubGateway) StartRegistrationPhase(ctx context.Context) error { return nil }

func (g *stubGateway) IsRegistrationPhaseActive(ctx context.Context) (bool, error) {
	return true, nil
}

func (g *stubGateway) GetElectionStatus(ctx context.Context, chainElectionId int64) (*chain.ElectionStatus, error) {
	return &chain.ElectionStatus{Status: chain.ChainStatusActive}, nil
}

type apiFixture struct {
	router    *gin.Engine
	scheduler *election.TimerScheduler
}

func newApiFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := db_connection.Open(db_connection.InMemoryDSN)
	require.NoError(t, err)

	repos := repositories.NewRepositories(db)
	scheduler := election.NewTimerScheduler()
	t.Cleanup(scheduler.Stop)

	coordinator := election.NewCoordinator(repos, &stubGateway{}, scheduler, zerolog.Nop())
	admission := votes.NewAdmissionService(repos, zerolog.Nop())

	return &apiFixture{
		router:    NewServer(coordinator, admission, zerolog.Nop()).Router(),
		scheduler: scheduler,
	}
}

func (f *apiFixture) request(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *apiFixture) decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

// seedBallot registers and approves two voters and adds two candidates,
// returning the candidate ids.
func (f *apiFixture) seedBallot(t *testing.T) []int64 {
	t.Helper()

	for i := 1; i <= 2; i++ {
		recorder := f.request(t, http.MethodPost, "/api/voters/register", gin.H{
			"nationalId":    fmt.Sprintf("voter-%d", i),
			"walletAddress": fmt.Sprintf("0xwallet%d", i),
		})
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

		voterId := f.decode(t, recorder)["id"].(float64)
		recorder = f.request(t, http.MethodPost, fmt.Sprintf("/api/admin/voters/%d/approve", int64(voterId)), nil)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	}

	candidateIds := make([]int64, 0, 2)
	for i := 1; i <= 2; i++ {
		recorder := f.request(t, http.MethodPost, "/api/admin/candidates", gin.H{
			"name":          fmt.Sprintf("Candidate %d", i),
			"age":           50 + i,
			"nationalId":    fmt.Sprintf("cand-%d", i),
			"qualification": "LLB",
		})
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		candidateIds = append(candidateIds, int64(f.decode(t, recorder)["id"].(float64)))
	}

	return candidateIds
}

func (f *apiFixture) createAndStartElection(t *testing.T, candidateIds []int64) int64 {
	t.Helper()

	recorder := f.request(t, http.MethodPost, "/api/admin/elections", gin.H{
		"candidateIds": candidateIds,
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	electionPayload := f.decode(t, recorder)["election"].(map[string]any)
	electionId := int64(electionPayload["id"].(float64))

	recorder = f.request(t, http.MethodPost, fmt.Sprintf("/api/admin/elections/%d/start", electionId), gin.H{
		"durationMinutes": 60,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	return electionId
}

func TestFullVotingRound(t *testing.T) {
	fixture := newApiFixture(t)
	candidateIds := fixture.seedBallot(t)
	electionId := fixture.createAndStartElection(t, candidateIds)

	recorder := fixture.request(t, http.MethodPost, "/api/elections/vote", gin.H{
		"voterNationalId": "voter-1",
		"candidateId":     candidateIds[0],
		"walletAddress":   "0xwallet1",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, float64(1), fixture.decode(t, recorder)["newVoteCount"])

	recorder = fixture.request(t, http.MethodPost, fmt.Sprintf("/api/admin/elections/%d/end", electionId), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = fixture.request(t, http.MethodGet, fmt.Sprintf("/api/elections/%d/results", electionId), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	results := fixture.decode(t, recorder)
	assert.Equal(t, float64(1), results["totalVotes"])
	assert.Equal(t, float64(0.5), results["turnout"])
}

func TestVoteWithoutActiveElectionIsBadRequest(t *testing.T) {
	fixture := newApiFixture(t)
	fixture.seedBallot(t)

	recorder := fixture.request(t, http.MethodPost, "/api/elections/vote", gin.H{
		"voterNationalId": "voter-1",
		"candidateId":     1,
		"walletAddress":   "0xwallet1",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSecondVoteIsConflict(t *testing.T) {
	fixture := newApiFixture(t)
	candidateIds := fixture.seedBallot(t)
	fixture.createAndStartElection(t, candidateIds)

	vote := gin.H{
		"voterNationalId": "voter-1",
		"candidateId":     candidateIds[0],
		"walletAddress":   "0xwallet1",
	}

	recorder := fixture.request(t, http.MethodPost, "/api/elections/vote", vote)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = fixture.request(t, http.MethodPost, "/api/elections/vote", vote)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestDuplicateRegistrationIsConflict(t *testing.T) {
	fixture := newApiFixture(t)

	body := gin.H{"nationalId": "dup-1", "walletAddress": "0xdup1"}

	recorder := fixture.request(t, http.MethodPost, "/api/voters/register", body)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = fixture.request(t, http.MethodPost, "/api/voters/register", body)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestStartUnknownElectionIsNotFound(t *testing.T) {
	fixture := newApiFixture(t)

	recorder := fixture.request(t, http.MethodPost, "/api/admin/elections/999/start", gin.H{
		"durationMinutes": 60,
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestInvalidDurationIsBadRequest(t *testing.T) {
	fixture := newApiFixture(t)
	candidateIds := fixture.seedBallot(t)

	recorder := fixture.request(t, http.MethodPost, "/api/admin/elections", gin.H{
		"candidateIds": candidateIds,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	electionPayload := fixture.decode(t, recorder)["election"].(map[string]any)
	electionId := int64(electionPayload["id"].(float64))

	recorder = fixture.request(t, http.MethodPost, fmt.Sprintf("/api/admin/elections/%d/start", electionId), gin.H{
		"durationMinutes": 14,
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCurrentElectionEmpty(t *testing.T) {
	fixture := newApiFixture(t)

	recorder := fixture.request(t, http.MethodGet, "/api/elections/current", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, fixture.decode(t, recorder)["election"])
}
