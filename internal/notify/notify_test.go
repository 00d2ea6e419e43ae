package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	require.NoError(t, p.Publish(BuildEvent{RunID: "x"}))
	p.Close()
}

func TestNewPublisherUnreachableServer(t *testing.T) {
	_, err := NewPublisher("nats://127.0.0.1:1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to nats")
}
