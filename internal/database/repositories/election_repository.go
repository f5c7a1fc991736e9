package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
)

// CandidateTally is a candidate together with its per election vote counter.
type CandidateTally struct {
	Candidate *db_models.CandidateDB
	VoteCount int
}

type ElectionRepository interface {
	Insert(election *db_models.ElectionDB) error
	GetById(id int64) (*db_models.ElectionDB, error)
	GetByStatus(statuses ...string) ([]*db_models.ElectionDB, error)
	GetActive() (*db_models.ElectionDB, error)
	SetChainElectionId(id int64, chainElectionId int64) error
	MarkActive(id int64, startedAt time.Time, scheduledEnd time.Time, durationMinutes int) (bool, error)
	MarkEnded(id int64, endedAt time.Time) (bool, error)
	UpdateVoterSnapshots(totalVoters int) error
	AssociateCandidates(electionId int64, candidateIds []int64) error
	CandidateInElection(electionId int64, candidateId int64) (bool, error)
	GetCandidateTallies(electionId int64) ([]*CandidateTally, error)
	DeleteWithAssociations(id int64) error
}

type ElectionRepositoryImpl struct {
	db *gorm.DB
}

func NewElectionRepositoryImpl(db *gorm.DB) *ElectionRepositoryImpl {
	return &ElectionRepositoryImpl{db: db}
}

func (repo *ElectionRepositoryImpl) Insert(election *db_models.ElectionDB) error {
	return repo.db.Create(election).Error
}

func (repo *ElectionRepositoryImpl) GetById(id int64) (*db_models.ElectionDB, error) {
	var electionDB db_models.ElectionDB
	result := repo.db.Where("id = ?", id).First(&electionDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &electionDB, nil
}

func (repo *ElectionRepositoryImpl) GetByStatus(statuses ...string) ([]*db_models.ElectionDB, error) {
	var electionsDB []*db_models.ElectionDB
	result := repo.db.Where("status IN ?", statuses).Order("created_at DESC").Find(&electionsDB)

	if result.Error != nil {
		return nil, result.Error
	}

	return electionsDB, nil
}

func (repo *ElectionRepositoryImpl) GetActive() (*db_models.ElectionDB, error) {
	var electionDB db_models.ElectionDB
	result := repo.db.Where("status = ?", db_models.ElectionStatusActive).First(&electionDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &electionDB, nil
}

func (repo *ElectionRepositoryImpl) SetChainElectionId(id int64, chainElectionId int64) error {
	return repo.db.Model(&db_models.ElectionDB{}).
		Where("id = ?", id).
		Update("chain_election_id", chainElectionId).Error
}

// MarkActive transitions an election from CREATED to ACTIVE. The state is
// part of the predicate so a lost race surfaces as no rows affected rather
// than an overwrite.
func (repo *ElectionRepositoryImpl) MarkActive(id int64, startedAt time.Time, scheduledEnd time.Time, durationMinutes int) (bool, error) {
	result := repo.db.Model(&db_models.ElectionDB{}).
		Where("id = ? AND status = ?", id, db_models.ElectionStatusCreated).
		Updates(map[string]any{
			"status":             db_models.ElectionStatusActive,
			"started_at":         startedAt,
			"scheduled_end_time": scheduledEnd,
			"duration_minutes":   durationMinutes,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// MarkEnded transitions an election from ACTIVE to ENDED. scheduled_end_time
// is left untouched so an early manual end stays distinguishable.
func (repo *ElectionRepositoryImpl) MarkEnded(id int64, endedAt time.Time) (bool, error) {
	result := repo.db.Model(&db_models.ElectionDB{}).
		Where("id = ? AND status = ?", id, db_models.ElectionStatusActive).
		Updates(map[string]any{
			"status":   db_models.ElectionStatusEnded,
			"ended_at": endedAt,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// UpdateVoterSnapshots refreshes the turnout denominator on every election
// that is still CREATED or ACTIVE. Ended elections keep their snapshot.
func (repo *ElectionRepositoryImpl) UpdateVoterSnapshots(totalVoters int) error {
	return repo.db.Model(&db_models.ElectionDB{}).
		Where("status IN ?", []string{db_models.ElectionStatusCreated, db_models.ElectionStatusActive}).
		Update("total_voters", totalVoters).Error
}

func (repo *ElectionRepositoryImpl) AssociateCandidates(electionId int64, candidateIds []int64) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		for _, candidateId := range candidateIds {
			association := &db_models.ElectionCandidateDB{
				ElectionId:  electionId,
				CandidateId: candidateId,
				VoteCount:   0,
			}

			if err := tx.Create(association).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (repo *ElectionRepositoryImpl) CandidateInElection(electionId int64, candidateId int64) (bool, error) {
	var count int64
	result := repo.db.Model(&db_models.ElectionCandidateDB{}).
		Where("election_id = ? AND candidate_id = ?", electionId, candidateId).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (repo *ElectionRepositoryImpl) GetCandidateTallies(electionId int64) ([]*CandidateTally, error) {
	var associations []*db_models.ElectionCandidateDB
	result := repo.db.Where("election_id = ?", electionId).Order("candidate_id").Find(&associations)

	if result.Error != nil {
		return nil, result.Error
	}

	tallies := make([]*CandidateTally, 0, len(associations))

	for _, association := range associations {
		var candidateDB db_models.CandidateDB
		if err := repo.db.Where("id = ?", association.CandidateId).First(&candidateDB).Error; err != nil {
			return nil, err
		}

		tallies = append(tallies, &CandidateTally{
			Candidate: &candidateDB,
			VoteCount: association.VoteCount,
		})
	}

	return tallies, nil
}

// DeleteWithAssociations removes an election and its candidate associations.
// Used as the compensating action when the chain leg of creation fails.
func (repo *ElectionRepositoryImpl) DeleteWithAssociations(id int64) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("election_id = ?", id).Delete(&db_models.ElectionCandidateDB{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&db_models.ElectionDB{}).Error
	})
}
