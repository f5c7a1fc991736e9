package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db_connection "github.com/riorajhon/block-vote/internal/database/connection"
	db_models "github.com/riorajhon/block-vote/internal/database/models"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()

	db, err := db_connection.Open(db_connection.InMemoryDSN)
	require.NoError(t, err)

	return NewRepositories(db)
}

func insertElection(t *testing.T, repos *Repositories, status string) *db_models.ElectionDB {
	t.Helper()

	electionDB := &db_models.ElectionDB{
		Name:        fmt.Sprintf("Election %s", status),
		Status:      db_models.ElectionStatusCreated,
		CreatedAt:   time.Now(),
		TotalVoters: 5,
	}
	require.NoError(t, repos.ElectionRepository.Insert(electionDB))

	now := time.Now()

	if status == db_models.ElectionStatusActive || status == db_models.ElectionStatusEnded {
		ok, err := repos.ElectionRepository.MarkActive(electionDB.Id, now, now.Add(time.Hour), 60)
		require.NoError(t, err)
		require.True(t, ok)
	}

	if status == db_models.ElectionStatusEnded {
		ok, err := repos.ElectionRepository.MarkEnded(electionDB.Id, now)
		require.NoError(t, err)
		require.True(t, ok)
	}

	electionDB.Status = status
	return electionDB
}

func insertCandidate(t *testing.T, repos *Repositories, nationalId string) *db_models.CandidateDB {
	t.Helper()

	candidateDB := &db_models.CandidateDB{
		Name:          "Candidate " + nationalId,
		Age:           45,
		NationalId:    nationalId,
		Qualification: "BSc",
	}
	require.NoError(t, repos.CandidateRepository.Insert(candidateDB))
	return candidateDB
}

func TestMarkActiveOnlyFromCreated(t *testing.T) {
	repos := newTestRepos(t)
	electionDB := insertElection(t, repos, db_models.ElectionStatusCreated)
	now := time.Now()

	ok, err := repos.ElectionRepository.MarkActive(electionDB.Id, now, now.Add(time.Hour), 60)
	require.NoError(t, err)
	assert.True(t, ok)

	// Already ACTIVE, the guarded update must not match.
	ok, err = repos.ElectionRepository.MarkActive(electionDB.Id, now, now.Add(time.Hour), 60)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkEndedOnlyFromActive(t *testing.T) {
	repos := newTestRepos(t)
	electionDB := insertElection(t, repos, db_models.ElectionStatusCreated)

	ok, err := repos.ElectionRepository.MarkEnded(electionDB.Id, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "CREATED election must not end directly")

	now := time.Now()
	ok, err = repos.ElectionRepository.MarkActive(electionDB.Id, now, now.Add(time.Hour), 60)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repos.ElectionRepository.MarkEnded(electionDB.Id, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.ElectionRepository.MarkEnded(electionDB.Id, now)
	require.NoError(t, err)
	assert.False(t, ok, "second end must find no ACTIVE row")
}

func TestUpdateVoterSnapshotsSkipsEnded(t *testing.T) {
	repos := newTestRepos(t)
	created := insertElection(t, repos, db_models.ElectionStatusCreated)
	active := insertElection(t, repos, db_models.ElectionStatusActive)
	ended := insertElection(t, repos, db_models.ElectionStatusEnded)

	require.NoError(t, repos.ElectionRepository.UpdateVoterSnapshots(9))

	for _, tc := range []struct {
		id       int64
		expected int
	}{
		{created.Id, 9},
		{active.Id, 9},
		{ended.Id, 5},
	} {
		reloaded, err := repos.ElectionRepository.GetById(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, reloaded.TotalVoters)
	}
}

func TestGetActiveReturnsNilWithoutActiveElection(t *testing.T) {
	repos := newTestRepos(t)
	insertElection(t, repos, db_models.ElectionStatusCreated)
	insertElection(t, repos, db_models.ElectionStatusEnded)

	activeDB, err := repos.ElectionRepository.GetActive()
	require.NoError(t, err)
	assert.Nil(t, activeDB)

	expected := insertElection(t, repos, db_models.ElectionStatusActive)

	activeDB, err = repos.ElectionRepository.GetActive()
	require.NoError(t, err)
	require.NotNil(t, activeDB)
	assert.Equal(t, expected.Id, activeDB.Id)
}

func TestAssociationsAndTallies(t *testing.T) {
	repos := newTestRepos(t)
	electionDB := insertElection(t, repos, db_models.ElectionStatusCreated)
	first := insertCandidate(t, repos, "tally-1")
	second := insertCandidate(t, repos, "tally-2")
	outsider := insertCandidate(t, repos, "tally-3")

	require.NoError(t, repos.ElectionRepository.AssociateCandidates(electionDB.Id, []int64{first.Id, second.Id}))

	inElection, err := repos.ElectionRepository.CandidateInElection(electionDB.Id, first.Id)
	require.NoError(t, err)
	assert.True(t, inElection)

	inElection, err = repos.ElectionRepository.CandidateInElection(electionDB.Id, outsider.Id)
	require.NoError(t, err)
	assert.False(t, inElection)

	tallies, err := repos.ElectionRepository.GetCandidateTallies(electionDB.Id)
	require.NoError(t, err)
	require.Len(t, tallies, 2)

	for _, tally := range tallies {
		assert.Equal(t, 0, tally.VoteCount)
	}
}

func TestDeleteWithAssociations(t *testing.T) {
	repos := newTestRepos(t)
	electionDB := insertElection(t, repos, db_models.ElectionStatusCreated)
	first := insertCandidate(t, repos, "del-1")
	second := insertCandidate(t, repos, "del-2")

	require.NoError(t, repos.ElectionRepository.AssociateCandidates(electionDB.Id, []int64{first.Id, second.Id}))
	require.NoError(t, repos.ElectionRepository.DeleteWithAssociations(electionDB.Id))

	reloaded, err := repos.ElectionRepository.GetById(electionDB.Id)
	require.NoError(t, err)
	assert.Nil(t, reloaded)

	tallies, err := repos.ElectionRepository.GetCandidateTallies(electionDB.Id)
	require.NoError(t, err)
	assert.Empty(t, tallies)

	// Candidates themselves survive the compensation.
	remaining, err := repos.CandidateRepository.GetAll()
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestVoterUniqueConstraints(t *testing.T) {
	repos := newTestRepos(t)

	require.NoError(t, repos.VoterRepository.Insert(&db_models.VoterDB{
		NationalId:    "unique-1",
		WalletAddress: "0xunique1",
	}))

	err := repos.VoterRepository.Insert(&db_models.VoterDB{
		NationalId:    "unique-1",
		WalletAddress: "0xother",
	})
	assert.ErrorIs(t, err, ErrVoterExists)

	err = repos.VoterRepository.Insert(&db_models.VoterDB{
		NationalId:    "unique-2",
		WalletAddress: "0xunique1",
	})
	assert.ErrorIs(t, err, ErrVoterExists)
}

func TestCandidateInActiveElection(t *testing.T) {
	repos := newTestRepos(t)
	candidateDB := insertCandidate(t, repos, "active-1")
	other := insertCandidate(t, repos, "active-2")

	electionDB := insertElection(t, repos, db_models.ElectionStatusCreated)
	require.NoError(t, repos.ElectionRepository.AssociateCandidates(electionDB.Id, []int64{candidateDB.Id, other.Id}))

	inActive, err := repos.CandidateRepository.InActiveElection(candidateDB.Id)
	require.NoError(t, err)
	assert.False(t, inActive, "CREATED election does not pin candidates")

	now := time.Now()
	ok, err := repos.ElectionRepository.MarkActive(electionDB.Id, now, now.Add(time.Hour), 60)
	require.NoError(t, err)
	require.True(t, ok)

	inActive, err = repos.CandidateRepository.InActiveElection(candidateDB.Id)
	require.NoError(t, err)
	assert.True(t, inActive)
}
