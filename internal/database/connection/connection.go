package db_connection

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "github.com/riorajhon/block-vote/internal/database/models"
)

// InMemoryDSN opens an ephemeral sqlite database, used by tests.
const InMemoryDSN = ":memory:"

var modelsToMigrate = []any{
	&models.ElectionDB{},
	&models.CandidateDB{},
	&models.ElectionCandidateDB{},
	&models.VoteDB{},
	&models.VoterDB{},
}

// TranslateError turns driver unique-violations into gorm.ErrDuplicatedKey,
// which the vote repository relies on to detect double votes.
var gormConfig = &gorm.Config{
	Logger:         logger.Default.LogMode(logger.Silent),
	TranslateError: true,
}

// Open opens (or creates) the ledger database at the given file path and
// migrates the schema. Passing InMemoryDSN yields a non persistent database.
func Open(dbFile string) (*gorm.DB, error) {
	dsn := dbFile

	if dsn != InMemoryDSN {
		dir := filepath.Dir(dbFile)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.Wrap(err, "failed to create database directory")
			}
		}

		// WAL lets the scheduler goroutine and request handlers share the file.
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}

	if dsn == InMemoryDSN {
		// Every sqlite connection to :memory: gets its own database, so the
		// pool must stay at one connection for the schema to remain visible.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access underlying connection")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(modelsToMigrate...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return db, nil
}

// ResetDatabase drops and recreates every table.
func ResetDatabase(db *gorm.DB) error {
	if err := db.Migrator().DropTable(modelsToMigrate...); err != nil {
		return err
	}

	return db.AutoMigrate(modelsToMigrate...)
}
