package repositories

import "gorm.io/gorm"

// Repositories bundles every ledger repository over a shared connection.
type Repositories struct {
	ElectionRepository  ElectionRepository
	CandidateRepository CandidateRepository
	VoteRepository      VoteRepository
	VoterRepository     VoterRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ElectionRepository:  NewElectionRepositoryImpl(db),
		CandidateRepository: NewCandidateRepositoryImpl(db),
		VoteRepository:      NewVoteRepositoryImpl(db),
		VoterRepository:     NewVoterRepositoryImpl(db),
	}
}
