package db_models

// ElectionCandidateDB carries the per election vote counter on the
// election to candidate association. The counter is only ever incremented
// inside the vote admission transaction.
type ElectionCandidateDB struct {
	ElectionId  int64 `gorm:"primaryKey;column:election_id;uniqueIndex:idx_election_candidate"`
	CandidateId int64 `gorm:"primaryKey;column:candidate_id;uniqueIndex:idx_election_candidate"`
	VoteCount   int   `gorm:"column:vote_count;not null;default:0"`
}

func (ElectionCandidateDB) TableName() string {
	return "elections_candidates"
}
