package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chainscope/evm-token-indexer/internal/store/schema"
	"github.com/chainscope/evm-token-indexer/internal/types"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Initialize the database schema
	if err := AutoMigrate(testDB); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	terminateContainer(ctx)

	os.Exit(code)
}

func terminateContainer(ctx context.Context) {
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}
}

// initPGTestDB creates a store on a fresh transaction so tests stay isolated
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

func TestPGStore_Get_ReturnsNilWhenAbsent(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	account, err := s.Accounts().Get(ctx, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestPGStore_SaveAndGet_Account(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	account := &schema.Account{
		ID:             "0x1111111111111111111111111111111111111111",
		TotalSent:      2,
		TotalReceived:  1,
		TotalTransfers: 3,
	}
	require.NoError(t, s.Accounts().Save(ctx, []*schema.Account{account}))

	loaded, err := s.Accounts().Get(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, uint64(2), loaded.TotalSent)
	assert.Equal(t, uint64(1), loaded.TotalReceived)
	assert.Equal(t, uint64(3), loaded.TotalTransfers)
}

func TestPGStore_Save_UpsertsOnConflict(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	token := &schema.FToken{
		ID:              "0x2222222222222222222222222222222222222222",
		ContractAddress: "0x2222222222222222222222222222222222222222",
		Standard:        schema.StandardERC20,
		Name:            types.StringPtr("Mock Coin"),
		Symbol:          types.StringPtr("MOCK"),
	}
	require.NoError(t, s.FTokens().Save(ctx, []*schema.FToken{token}))

	token.Name = types.StringPtr("Mock Coin v2")
	require.NoError(t, s.FTokens().Save(ctx, []*schema.FToken{token}))

	loaded, err := s.FTokens().Get(ctx, token.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Mock Coin v2", types.SafeString(loaded.Name))
	assert.Equal(t, "MOCK", types.SafeString(loaded.Symbol))
}

func TestPGStore_Find_ReturnsOnlyPresentIDs(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	accounts := []*schema.Account{
		{ID: "0x3333333333333333333333333333333333333331"},
		{ID: "0x3333333333333333333333333333333333333332"},
	}
	require.NoError(t, s.Accounts().Save(ctx, accounts))

	found, err := s.Accounts().Find(ctx, []string{
		accounts[0].ID,
		accounts[1].ID,
		"0x3333333333333333333333333333333333333339",
	})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestPGStore_Save_EmptySliceIsNoop(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Accounts().Save(ctx, nil))
}

func TestPGStore_NftTransfer_RoundTrip(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	collection := &schema.Collection{
		ID:              "0x4444444444444444444444444444444444444444",
		ContractAddress: "0x4444444444444444444444444444444444444444",
		CollectionType:  schema.StandardERC1155,
		CreatedBlock:    100,
		CreatedTime:     now,
	}
	require.NoError(t, s.Collections().Save(ctx, []*schema.Collection{collection}))

	token := &schema.NFToken{
		ID:              "44444444444444-7",
		NativeID:        "7",
		ContractAddress: collection.ContractAddress,
		Standard:        schema.StandardERC1155,
		Amount:          "5",
		CollectionID:    collection.ID,
	}
	require.NoError(t, s.NFTokens().Save(ctx, []*schema.NFToken{token}))

	operator := "0x5555555555555555555555555555555555555555"
	transfer := &schema.NftTransfer{
		ID:                "0000000100-000002-7",
		TokenID:           token.ID,
		FromAccountID:     "0x0000000000000000000000000000000000000000",
		ToAccountID:       operator,
		OperatorAccountID: &operator,
		Amount:            "5",
		TransferType:      schema.TransferTypeMint,
		IsBatch:           true,
		BlockNumber:       100,
		EventIndex:        2,
		TxHash:            "0xabc",
		Timestamp:         now,
		Raw:               []byte(`{"value":"5"}`),
	}
	require.NoError(t, s.NftTransfers().Save(ctx, []*schema.NftTransfer{transfer}))

	loaded, err := s.NftTransfers().Get(ctx, transfer.ID, "Token")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, schema.TransferTypeMint, loaded.TransferType)
	assert.True(t, loaded.IsBatch)
	require.NotNil(t, loaded.Token)
	assert.Equal(t, "7", loaded.Token.NativeID)
}

func TestPGStore_FtBalance_NumericColumnKeepsPrecision(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	// Max uint256 must survive the numeric(78,0) round trip
	huge := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	balance := &schema.AccountFtBalance{
		ID:        "0x6666666666666666666666666666666666666666-0x7777777777777777777777777777777777777777",
		AccountID: "0x6666666666666666666666666666666666666666",
		TokenID:   "0x7777777777777777777777777777777777777777",
		Balance:   huge,
	}
	require.NoError(t, s.FtBalances().Save(ctx, []*schema.AccountFtBalance{balance}))

	loaded, err := s.FtBalances().Get(ctx, balance.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, huge, loaded.Balance)
}

func TestPGStore_BlockCursor(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	cursor, err := s.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)

	require.NoError(t, s.SetBlockCursor(ctx, "ethereum", 18000000))

	cursor, err = s.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(18000000), cursor)

	// Overwrite advances the cursor in place
	require.NoError(t, s.SetBlockCursor(ctx, "ethereum", 18000100))

	cursor, err = s.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(18000100), cursor)

	// Cursors are tracked per network
	cursor, err = s.GetBlockCursor(ctx, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)
}
