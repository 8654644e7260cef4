package sse

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendView(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendView(w, 3, map[string]string{"phase": "idle"}))
	assert.Equal(t, "id: 3\nevent: view\ndata: {\"phase\":\"idle\"}\n\n", buf.String())
}

func TestSendClosedCarriesRetry(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendClosed(w, 1500))
	assert.Equal(t, "retry: 1500\nevent: closed\ndata: {\"type\":\"closed\"}\n\n", buf.String())
}

func TestSendStringDataIsRaw(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, Send(w, Event{Data: "hello"}))
	require.NoError(t, SendKeepAlive(w))
	assert.Equal(t, "data: hello\n\n: ping\n\n", buf.String())
}
