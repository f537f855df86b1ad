package processor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainscope/evm-token-indexer/internal/mocks"
	"github.com/chainscope/evm-token-indexer/internal/processor"
	"github.com/chainscope/evm-token-indexer/internal/source"
	"github.com/chainscope/evm-token-indexer/internal/store/storetest"
)

type testRunnerMocks struct {
	ctrl      *gomock.Controller
	source    *mocks.MockSource
	processor *mocks.MockBatchProcessor
	clock     *mocks.MockClock
	store     *storetest.MemStore
	runner    *processor.Runner
}

func setupRunnerTest(t *testing.T) *testRunnerMocks {
	ctrl := gomock.NewController(t)
	mockSource := mocks.NewMockSource(ctrl)
	mockProcessor := mocks.NewMockBatchProcessor(ctrl)
	mockClock := mocks.NewMockClock(ctrl)
	memStore := storetest.NewMemStore()

	runner := processor.NewRunner(mockSource, memStore, mockProcessor, mockClock, processor.RunnerConfig{
		Network:       "ethereum",
		BatchSize:     10,
		PollInterval:  time.Second,
		StartBlock:    100,
		Confirmations: 5,
	})

	return &testRunnerMocks{
		ctrl:      ctrl,
		source:    mockSource,
		processor: mockProcessor,
		clock:     mockClock,
		store:     memStore,
		runner:    runner,
	}
}

func tearDownRunnerTest(tm *testRunnerMocks) {
	tm.ctrl.Finish()
}

func TestRunner_RunOnce_FirstBatchStartsAtStartBlock(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx := context.Background()
	batch := &source.Batch{FromBlock: 100, ToBlock: 109}

	tm.source.EXPECT().LatestBlock(gomock.Any()).Return(uint64(150), nil)
	tm.source.EXPECT().FetchBatch(gomock.Any(), uint64(100), uint64(109)).Return(batch, nil)
	tm.processor.EXPECT().ProcessBatch(gomock.Any(), batch).Return(nil)

	processed, err := tm.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	cursor, err := tm.store.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(109), cursor)
}

func TestRunner_RunOnce_ResumesAfterCursor(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx := context.Background()
	require.NoError(t, tm.store.SetBlockCursor(ctx, "ethereum", 120))

	batch := &source.Batch{FromBlock: 121, ToBlock: 130}

	tm.source.EXPECT().LatestBlock(gomock.Any()).Return(uint64(150), nil)
	tm.source.EXPECT().FetchBatch(gomock.Any(), uint64(121), uint64(130)).Return(batch, nil)
	tm.processor.EXPECT().ProcessBatch(gomock.Any(), batch).Return(nil)

	processed, err := tm.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	cursor, err := tm.store.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(130), cursor)
}

func TestRunner_RunOnce_ClampsToConfirmedHead(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx := context.Background()
	require.NoError(t, tm.store.SetBlockCursor(ctx, "ethereum", 140))

	// Head 148 minus 5 confirmations leaves 141-143
	batch := &source.Batch{FromBlock: 141, ToBlock: 143}

	tm.source.EXPECT().LatestBlock(gomock.Any()).Return(uint64(148), nil)
	tm.source.EXPECT().FetchBatch(gomock.Any(), uint64(141), uint64(143)).Return(batch, nil)
	tm.processor.EXPECT().ProcessBatch(gomock.Any(), batch).Return(nil)

	processed, err := tm.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestRunner_RunOnce_CaughtUp(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx := context.Background()
	require.NoError(t, tm.store.SetBlockCursor(ctx, "ethereum", 145))

	// 146 > 150-5: nothing to do, no fetch
	tm.source.EXPECT().LatestBlock(gomock.Any()).Return(uint64(150), nil)

	processed, err := tm.runner.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRunner_RunOnce_ProcessorFailureKeepsCursor(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx := context.Background()
	require.NoError(t, tm.store.SetBlockCursor(ctx, "ethereum", 120))

	batch := &source.Batch{FromBlock: 121, ToBlock: 130}

	tm.source.EXPECT().LatestBlock(gomock.Any()).Return(uint64(150), nil)
	tm.source.EXPECT().FetchBatch(gomock.Any(), uint64(121), uint64(130)).Return(batch, nil)
	tm.processor.EXPECT().ProcessBatch(gomock.Any(), batch).Return(errors.New("flush failed"))

	processed, err := tm.runner.RunOnce(ctx)
	require.Error(t, err)
	assert.False(t, processed)

	// The failed range replays on the next iteration
	cursor, err := tm.store.GetBlockCursor(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(120), cursor)
}

func TestRunner_Run_StopsOnContextCancel(t *testing.T) {
	tm := setupRunnerTest(t)
	defer tearDownRunnerTest(tm)

	ctx, cancel := context.WithCancel(context.Background())

	sleeps := make(chan time.Time)
	tm.clock.EXPECT().After(time.Second).Return((<-chan time.Time)(sleeps)).AnyTimes()
	tm.source.EXPECT().LatestBlock(gomock.Any()).
		DoAndReturn(func(context.Context) (uint64, error) {
			// Caught up forever; cancel once the loop is running
			cancel()
			return uint64(0), nil
		}).
		AnyTimes()

	err := tm.runner.Run(ctx)
	assert.NoError(t, err)
}
