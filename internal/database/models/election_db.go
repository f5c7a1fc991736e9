package db_models

import "time"

const (
	ElectionStatusCreated = "CREATED"
	ElectionStatusActive  = "ACTIVE"
	ElectionStatusEnded   = "ENDED"
)

type ElectionDB struct {
	Id               int64      `gorm:"primaryKey;autoIncrement;column:id"`
	Name             string     `gorm:"column:name;not null"`
	Status           string     `gorm:"column:status;not null;default:CREATED"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	StartedAt        *time.Time `gorm:"column:started_at"`
	EndedAt          *time.Time `gorm:"column:ended_at"`
	ScheduledEndTime *time.Time `gorm:"column:scheduled_end_time"`
	DurationMinutes  *int       `gorm:"column:duration_minutes"`
	TotalVoters      int        `gorm:"column:total_voters;not null;default:0"`
	ChainElectionId  *int64     `gorm:"column:chain_election_id"`

	Candidates []CandidateDB `gorm:"many2many:elections_candidates;foreignKey:Id;joinForeignKey:election_id;References:Id;joinReferences:candidate_id"`
}

func (ElectionDB) TableName() string {
	return "elections"
}
