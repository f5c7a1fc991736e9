package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
)

// ErrVoterExists is returned when a registration collides with an existing
// national id or wallet address.
var ErrVoterExists = errors.New("voter with national id or wallet address already registered")

type VoterRepository interface {
	Insert(voter *db_models.VoterDB) error
	GetById(id int64) (*db_models.VoterDB, error)
	GetApprovedByIdentity(nationalId string, walletAddress string) (*db_models.VoterDB, error)
	GetPending() ([]*db_models.VoterDB, error)
	GetApproved() ([]*db_models.VoterDB, error)
	CountApproved() (int, error)
	Approve(id int64) error
	Delete(id int64) error
}

type VoterRepositoryImpl struct {
	db *gorm.DB
}

func NewVoterRepositoryImpl(db *gorm.DB) *VoterRepositoryImpl {
	return &VoterRepositoryImpl{db: db}
}

func (repo *VoterRepositoryImpl) Insert(voter *db_models.VoterDB) error {
	if voter.CreatedAt.IsZero() {
		voter.CreatedAt = time.Now()
	}

	err := repo.db.Create(voter).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrVoterExists
	}

	return err
}

func (repo *VoterRepositoryImpl) GetById(id int64) (*db_models.VoterDB, error) {
	var voterDB db_models.VoterDB
	result := repo.db.Where("id = ?", id).First(&voterDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &voterDB, nil
}

// GetApprovedByIdentity finds an approved voter matching both national id
// and wallet address.
func (repo *VoterRepositoryImpl) GetApprovedByIdentity(nationalId string, walletAddress string) (*db_models.VoterDB, error) {
	var voterDB db_models.VoterDB
	result := repo.db.
		Where("national_id = ? AND wallet_address = ? AND approved = ?", nationalId, walletAddress, true).
		First(&voterDB)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &voterDB, nil
}

func (repo *VoterRepositoryImpl) GetPending() ([]*db_models.VoterDB, error) {
	return repo.getByApproval(false)
}

func (repo *VoterRepositoryImpl) GetApproved() ([]*db_models.VoterDB, error) {
	return repo.getByApproval(true)
}

func (repo *VoterRepositoryImpl) getByApproval(approved bool) ([]*db_models.VoterDB, error) {
	var votersDB []*db_models.VoterDB
	result := repo.db.Where("approved = ?", approved).Order("created_at").Find(&votersDB)

	if result.Error != nil {
		return nil, result.Error
	}

	return votersDB, nil
}

func (repo *VoterRepositoryImpl) CountApproved() (int, error) {
	var count int64
	result := repo.db.Model(&db_models.VoterDB{}).Where("approved = ?", true).Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}

	return int(count), nil
}

func (repo *VoterRepositoryImpl) Approve(id int64) error {
	return repo.db.Model(&db_models.VoterDB{}).
		Where("id = ?", id).
		Update("approved", true).Error
}

func (repo *VoterRepositoryImpl) Delete(id int64) error {
	return repo.db.Where("id = ?", id).Delete(&db_models.VoterDB{}).Error
}
