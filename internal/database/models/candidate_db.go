package db_models

type CandidateDB struct {
	Id            int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name          string `gorm:"column:name;not null"`
	Age           int    `gorm:"column:age;not null"`
	NationalId    string `gorm:"column:national_id;not null;uniqueIndex"`
	Qualification string `gorm:"column:qualification;not null"`

	Elections []ElectionDB `gorm:"many2many:elections_candidates;foreignKey:Id;joinForeignKey:candidate_id;References:Id;joinReferences:election_id"`
}

func (CandidateDB) TableName() string {
	return "candidates"
}
