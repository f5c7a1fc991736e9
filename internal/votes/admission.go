// Package votes validates and durably records votes. The chain-side vote
// transaction is confirmed by the caller before admission; this service
// never triggers a chain call itself, so the ledger can never run ahead of
// the chain.
package votes

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
	repositories "github.com/riorajhon/block-vote/internal/database/repositories"
)

var (
	ErrNoActiveElection       = errors.New("no active election")
	ErrVoterNotApproved       = errors.New("voter not approved or not found")
	ErrAlreadyVoted           = errors.New("voter has already voted in this election")
	ErrCandidateNotInElection = errors.New("candidate is not part of the current election")
)

// AdmissionResult reports the recorded vote and the candidate's updated
// per-election counter.
type AdmissionResult struct {
	ElectionId  int64
	CandidateId int64
	VoteCount   int
}

type AdmissionService struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

func NewAdmissionService(repos *repositories.Repositories, logger zerolog.Logger) *AdmissionService {
	return &AdmissionService{
		repos:  repos,
		logger: logger.With().Str("component", "vote_admission").Logger(),
	}
}

// AdmitVote records one vote after validating the voter and candidate
// against the active election. The insert and the counter increment happen
// in a single transaction; two concurrent admissions for the same voter both
// pass the read checks, and the unique (voter, election) index turns the
// loser into ErrAlreadyVoted. That same constraint makes admission
// idempotent if a confirmed chain vote is ever replayed.
func (s *AdmissionService) AdmitVote(ctx context.Context, voterNationalId string, candidateId int64, walletAddress string) (*AdmissionResult, error) {
	activeElection, err := s.repos.ElectionRepository.GetActive()
	if err != nil {
		return nil, err
	}

	if activeElection == nil {
		return nil, ErrNoActiveElection
	}

	voter, err := s.repos.VoterRepository.GetApprovedByIdentity(voterNationalId, walletAddress)
	if err != nil {
		return nil, err
	}

	if voter == nil {
		return nil, ErrVoterNotApproved
	}

	existingVote, err := s.repos.VoteRepository.GetByVoterAndElection(voterNationalId, activeElection.Id)
	if err != nil {
		return nil, err
	}

	if existingVote != nil {
		return nil, ErrAlreadyVoted
	}

	inElection, err := s.repos.ElectionRepository.CandidateInElection(activeElection.Id, candidateId)
	if err != nil {
		return nil, err
	}

	if !inElection {
		return nil, ErrCandidateNotInElection
	}

	voteDB := &db_models.VoteDB{
		VoterNationalId: voterNationalId,
		ElectionId:      activeElection.Id,
		CandidateId:     candidateId,
		WalletAddress:   walletAddress,
	}

	voteCount, err := s.repos.VoteRepository.InsertAndCount(voteDB)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateVote) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	s.logger.Info().
		Str("voter", voterNationalId).
		Int64("election_id", activeElection.Id).
		Int64("candidate_id", candidateId).
		Int("vote_count", voteCount).
		Msg("vote recorded")

	return &AdmissionResult{
		ElectionId:  activeElection.Id,
		CandidateId: candidateId,
		VoteCount:   voteCount,
	}, nil
}
