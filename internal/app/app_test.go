package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPathFor(t *testing.T) {
	assert.Equal(t, "./data/unpublished-mcp.db", BufferPathFor("./data/unpublished.db", "mcp"))
	assert.Equal(t, "/var/lib/ledger/buffer-mcp", BufferPathFor("/var/lib/ledger/buffer", "mcp"))
	assert.Equal(t, "./data/unpublished.db", BufferPathFor("./data/unpublished.db", ""))
}
