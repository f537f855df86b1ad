package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainscope/evm-token-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB

	accounts            Repo[schema.Account]
	fTokens             Repo[schema.FToken]
	nfTokens            Repo[schema.NFToken]
	collections         Repo[schema.Collection]
	ftTransfers         Repo[schema.FtTransfer]
	nftTransfers        Repo[schema.NftTransfer]
	accountFtTransfers  Repo[schema.AccountFtTransfer]
	accountNftTransfers Repo[schema.AccountNftTransfer]
	ftBalances          Repo[schema.AccountFtBalance]
	uriUpdates          Repo[schema.UriUpdateAction]

	CursorStore
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{
		db:                  db,
		accounts:            newPGRepo[schema.Account](db, 6),
		fTokens:             newPGRepo[schema.FToken](db, 8),
		nfTokens:            newPGRepo[schema.NFToken](db, 13),
		collections:         newPGRepo[schema.Collection](db, 9),
		ftTransfers:         newPGRepo[schema.FtTransfer](db, 13),
		nftTransfers:        newPGRepo[schema.NftTransfer](db, 15),
		accountFtTransfers:  newPGRepo[schema.AccountFtTransfer](db, 5),
		accountNftTransfers: newPGRepo[schema.AccountNftTransfer](db, 5),
		ftBalances:          newPGRepo[schema.AccountFtBalance](db, 6),
		uriUpdates:          newPGRepo[schema.UriUpdateAction](db, 8),
		CursorStore:         NewCursorStore(db),
	}
}

func (s *pgStore) Accounts() Repo[schema.Account]       { return s.accounts }
func (s *pgStore) FTokens() Repo[schema.FToken]         { return s.fTokens }
func (s *pgStore) NFTokens() Repo[schema.NFToken]       { return s.nfTokens }
func (s *pgStore) Collections() Repo[schema.Collection] { return s.collections }

func (s *pgStore) FtTransfers() Repo[schema.FtTransfer]   { return s.ftTransfers }
func (s *pgStore) NftTransfers() Repo[schema.NftTransfer] { return s.nftTransfers }

func (s *pgStore) AccountFtTransfers() Repo[schema.AccountFtTransfer] {
	return s.accountFtTransfers
}

func (s *pgStore) AccountNftTransfers() Repo[schema.AccountNftTransfer] {
	return s.accountNftTransfers
}

func (s *pgStore) FtBalances() Repo[schema.AccountFtBalance] {
	return s.ftBalances
}

func (s *pgStore) UriUpdates() Repo[schema.UriUpdateAction] {
	return s.uriUpdates
}

// AutoMigrate creates or updates the database schema for every entity
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Account{},
		&schema.FToken{},
		&schema.NFToken{},
		&schema.Collection{},
		&schema.FtTransfer{},
		&schema.NftTransfer{},
		&schema.AccountFtTransfer{},
		&schema.AccountNftTransfer{},
		&schema.AccountFtBalance{},
		&schema.UriUpdateAction{},
		&schema.KeyValueStore{},
	)
}

// pgRepo implements Repo[T] on a gorm connection. fieldsPerRecord is the
// column count of T, used to size insert batches against the postgres
// parameter limit.
type pgRepo[T any] struct {
	db              *gorm.DB
	fieldsPerRecord int
}

func newPGRepo[T any](db *gorm.DB, fieldsPerRecord int) Repo[T] {
	return &pgRepo[T]{db: db, fieldsPerRecord: fieldsPerRecord}
}

// Get retrieves a single entity by id, returning nil when absent
func (r *pgRepo[T]) Get(ctx context.Context, id string, preloads ...string) (*T, error) {
	query := r.db.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	var entity T
	err := query.Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return &entity, nil
}

// Find retrieves entities for the given ids, chunked to FindChunkSize ids
// per query
func (r *pgRepo[T]) Find(ctx context.Context, ids []string, preloads ...string) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}

	results := make([]*T, 0, len(ids))
	for start := 0; start < len(ids); start += FindChunkSize {
		end := min(start+FindChunkSize, len(ids))

		query := r.db.WithContext(ctx)
		for _, preload := range preloads {
			query = query.Preload(preload)
		}

		var chunk []*T
		if err := query.Where("id IN ?", ids[start:end]).Find(&chunk).Error; err != nil {
			return nil, fmt.Errorf("failed to find entities: %w", err)
		}
		results = append(results, chunk...)
	}

	return results, nil
}

// Save bulk-upserts the given entities. On primary-key conflict all columns
// are updated, which is what makes batch reprocessing idempotent.
func (r *pgRepo[T]) Save(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}

	batchSize := calculateSafeBatchSize(len(entities), r.fieldsPerRecord)
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(entities, batchSize).Error
	if err != nil {
		return fmt.Errorf("failed to save entities: %w", err)
	}

	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays
// under PostgreSQL's extended-protocol limit of 65535 parameters per query.
// Each record consumes one parameter per inserted field, and the ON CONFLICT
// clause plus GORM bookkeeping add batch-level overhead, covered by a fixed
// headroom.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}
