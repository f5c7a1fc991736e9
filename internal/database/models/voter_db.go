package db_models

import "time"

type VoterDB struct {
	Id            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	NationalId    string    `gorm:"column:national_id;not null;uniqueIndex"`
	WalletAddress string    `gorm:"column:wallet_address;not null;uniqueIndex"`
	Approved      bool      `gorm:"column:approved;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (VoterDB) TableName() string {
	return "voters"
}
