package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
)

// ErrDuplicateVote is returned when a vote already exists for the same
// (voter, election) pair. Concurrent admissions for the same pair both pass
// the read checks; the unique index decides the winner and the loser gets
// this error.
var ErrDuplicateVote = errors.New("vote already recorded for voter and election")

type VoteRepository interface {
	InsertAndCount(vote *db_models.VoteDB) (int, error)
	GetByVoterAndElection(voterNationalId string, electionId int64) (*db_models.VoteDB, error)
	GetByElection(electionId int64) ([]*db_models.VoteDB, error)
	CountByElection(electionId int64) (int64, error)
}

type VoteRepositoryImpl struct {
	db *gorm.DB
}

func NewVoteRepositoryImpl(db *gorm.DB) *VoteRepositoryImpl {
	return &VoteRepositoryImpl{db: db}
}

// InsertAndCount records the vote and increments the candidate's per
// election counter as a single transaction, returning the new counter value.
func (repo *VoteRepositoryImpl) InsertAndCount(vote *db_models.VoteDB) (int, error) {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}

	var voteCount int

	err := repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateVote
			}
			return err
		}

		result := tx.Model(&db_models.ElectionCandidateDB{}).
			Where("election_id = ? AND candidate_id = ?", vote.ElectionId, vote.CandidateId).
			Update("vote_count", gorm.Expr("vote_count + 1"))

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return errors.New("candidate association missing for vote")
		}

		var association db_models.ElectionCandidateDB
		if err := tx.Where("election_id = ? AND candidate_id = ?", vote.ElectionId, vote.CandidateId).
			First(&association).Error; err != nil {
			return err
		}

		voteCount = association.VoteCount
		return nil
	})

	if err != nil {
		return 0, err
	}

	return voteCount, nil
}

func (repo *VoteRepositoryImpl) GetByVoterAndElection(voterNationalId string, electionId int64) (*db_models.VoteDB, error) {
	var voteDB db_models.VoteDB
	result := repo.db.Where("voter_national_id = ? AND election_id = ?", voterNationalId, electionId).First(&voteDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &voteDB, nil
}

func (repo *VoteRepositoryImpl) GetByElection(electionId int64) ([]*db_models.VoteDB, error) {
	var votesDB []*db_models.VoteDB
	result := repo.db.Where("election_id = ?", electionId).Order("created_at").Find(&votesDB)

	if result.Error != nil {
		return nil, result.Error
	}

	return votesDB, nil
}

func (repo *VoteRepositoryImpl) CountByElection(electionId int64) (int64, error) {
	var count int64
	result := repo.db.Model(&db_models.VoteDB{}).Where("election_id = ?", electionId).Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}
