package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	b, err := Encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = Encode("text")
	require.NoError(t, err)
	assert.Equal(t, "text", string(b))

	b, err = Encode(map[string]string{"trade_date": "2025-01-10"})
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, Decode(b, &got))
	assert.Equal(t, "2025-01-10", got["trade_date"])

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestStreamConfigCoversSubjects(t *testing.T) {
	cfg := StreamConfig()
	assert.Equal(t, StreamName, cfg.Name)
	assert.ElementsMatch(t, []string{"sentiment.*", "backtest.*"}, cfg.Subjects)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), SubjectStage, "x"))
}

func TestNewNATSClientUnreachable(t *testing.T) {
	_, err := NewNATSClient("nats://127.0.0.1:1")
	assert.Error(t, err)
}
