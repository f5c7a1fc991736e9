package repositories

import (
	"errors"

	"gorm.io/gorm"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
)

type CandidateRepository interface {
	Insert(candidate *db_models.CandidateDB) error
	GetById(id int64) (*db_models.CandidateDB, error)
	GetByIds(ids []int64) ([]*db_models.CandidateDB, error)
	GetAll() ([]*db_models.CandidateDB, error)
	GetByNationalId(nationalId string) (*db_models.CandidateDB, error)
	InActiveElection(candidateId int64) (bool, error)
	Delete(id int64) error
	DeleteAll() error
}

type CandidateRepositoryImpl struct {
	db *gorm.DB
}

func NewCandidateRepositoryImpl(db *gorm.DB) *CandidateRepositoryImpl {
	return &CandidateRepositoryImpl{db: db}
}

func (repo *CandidateRepositoryImpl) Insert(candidate *db_models.CandidateDB) error {
	return repo.db.Create(candidate).Error
}

func (repo *CandidateRepositoryImpl) GetById(id int64) (*db_models.CandidateDB, error) {
	var candidateDB db_models.CandidateDB
	result := repo.db.Where("id = ?", id).First(&candidateDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &candidateDB, nil
}

func (repo *CandidateRepositoryImpl) GetByIds(ids []int64) ([]*db_models.CandidateDB, error) {
	var candidatesDB []*db_models.CandidateDB
	result := repo.db.Where("id IN ?", ids).Find(&candidatesDB)

	if result.Error != nil {
		return nil, result.Error
	}

	return candidatesDB, nil
}

func (repo *CandidateRepositoryImpl) GetAll() ([]*db_models.CandidateDB, error) {
	var candidatesDB []*db_models.CandidateDB
	result := repo.db.Order("id").Find(&candidatesDB)

	if result.Error != nil {
		return nil, result.Error
	}

	return candidatesDB, nil
}

func (repo *CandidateRepositoryImpl) GetByNationalId(nationalId string) (*db_models.CandidateDB, error) {
	var candidateDB db_models.CandidateDB
	result := repo.db.Where("national_id = ?", nationalId).First(&candidateDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &candidateDB, nil
}

// InActiveElection reports whether the candidate participates in an election
// that is currently ACTIVE.
func (repo *CandidateRepositoryImpl) InActiveElection(candidateId int64) (bool, error) {
	var count int64
	result := repo.db.Table("elections_candidates").
		Joins("JOIN elections ON elections.id = elections_candidates.election_id").
		Where("elections_candidates.candidate_id = ?", candidateId).
		Where("elections.status = ?", db_models.ElectionStatusActive).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (repo *CandidateRepositoryImpl) Delete(id int64) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", id).Delete(&db_models.ElectionCandidateDB{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&db_models.CandidateDB{}).Error
	})
}

func (repo *CandidateRepositoryImpl) DeleteAll() error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&db_models.ElectionCandidateDB{}).Error; err != nil {
			return err
		}

		return tx.Where("1 = 1").Delete(&db_models.CandidateDB{}).Error
	})
}
