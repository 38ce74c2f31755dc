package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogTransactionErrorFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(zap.NewNop()) })

	LogTransactionError("txn-1", "dispatched", errors.New("firestore unavailable"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "transaction log write failed", entry.Message)
	assert.Equal(t, "txn-1", entry.ContextMap()["transaction_id"])
	assert.Equal(t, "dispatched", entry.ContextMap()["action"])
}

func TestPrintfHelpers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(zap.NewNop()) })

	Info("offer %s created", "o-1")
	Debug("hidden at info level")
	Warn("listing %s sold twice", "l-1")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "offer o-1 created", logs.All()[0].Message)
	assert.Equal(t, "listing l-1 sold twice", logs.All()[1].Message)
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("production", "loud"))
}
