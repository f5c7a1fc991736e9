package db_models

import "time"

// VoteDB is the append-only audit record of individual votes. The unique
// (voter_national_id, election_id) index is the double voting guard.
type VoteDB struct {
	Id              int64     `gorm:"primaryKey;autoIncrement;column:id"`
	VoterNationalId string    `gorm:"column:voter_national_id;not null;uniqueIndex:idx_voter_election"`
	ElectionId      int64     `gorm:"column:election_id;not null;uniqueIndex:idx_voter_election"`
	CandidateId     int64     `gorm:"column:candidate_id;not null"`
	WalletAddress   string    `gorm:"column:wallet_address;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

func (VoteDB) TableName() string {
	return "votes"
}
