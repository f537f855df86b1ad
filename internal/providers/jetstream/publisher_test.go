package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/messaging"
	"github.com/chainscope/evm-token-indexer/internal/mocks"
	"github.com/chainscope/evm-token-indexer/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testPublisherMocks struct {
	ctrl      *gomock.Controller
	natsJS    *mocks.MockNatsJetStream
	conn      *mocks.MockNatsConn
	js        *mocks.MockJetStream
	publisher messaging.Publisher
}

func setupTest(t *testing.T) *testPublisherMocks {
	ctrl := gomock.NewController(t)

	tm := &testPublisherMocks{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		conn:   mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}

	tm.natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(tm.conn, tm.js, nil)
	tm.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), natsjs.StreamConfig{
			Name:     "TRANSFERS",
			Subjects: []string{"transfers.>"},
		}).
		Return(nil, nil)

	publisher, err := jetstream.NewPublisher(context.Background(), jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "TRANSFERS",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "indexer-test",
	}, tm.natsJS, &adapter.RealJSON{})
	require.NoError(t, err)

	tm.publisher = publisher
	return tm
}

func tearDownTest(tm *testPublisherMocks) {
	tm.ctrl.Finish()
}

func TestPublishTransfer_SubjectAndDedupID(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	event := &messaging.TransferEvent{
		TransferID:      "0000000100-000001",
		Standard:        "erc20",
		TransferType:    "MINT",
		ContractAddress: "0x4444444444444444444444444444444444444444",
		TokenID:         "0x4444444444444444444444444444444444444444",
		From:            "0x0000000000000000000000000000000000000000",
		To:              "0x1111111111111111111111111111111111111111",
		Amount:          "1000",
		BlockNumber:     100,
		TxHash:          "0xdeadbeef",
		Timestamp:       time.Unix(1700000000, 0).UTC(),
	}

	tm.js.EXPECT().
		Publish(gomock.Any(), "transfers.erc20.mint", gomock.Any(), gomock.Any()).
		Return(&natsjs.PubAck{}, nil)

	err := tm.publisher.PublishTransfer(context.Background(), event)
	assert.NoError(t, err)
}

func TestPublishTransfer_PublishErrorPropagates(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	tm.js.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no responders"))

	err := tm.publisher.PublishTransfer(context.Background(), &messaging.TransferEvent{
		TransferID:   "0000000100-000002",
		Standard:     "erc721",
		TransferType: "TRANSFER",
	})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	tm.conn.EXPECT().Close()

	tm.publisher.Close()
}
