package jsonsink

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/loomgen/loom/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitWritesOneObjectKeyedByCollectionInFirstSeenOrder(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)

	usersHandle, err := s.Begin("users", 2)
	require.NoError(t, err)
	ordersHandle, err := s.Begin("orders", 1)
	require.NoError(t, err)

	require.NoError(t, s.Write(usersHandle, value.Object{{Name: "id", Value: value.Int(1)}}))
	require.NoError(t, s.Write(ordersHandle, value.Object{{Name: "id", Value: value.Int(100)}}))
	require.NoError(t, s.Write(usersHandle, value.Object{{Name: "id", Value: value.Int(2)}}))

	require.NoError(t, s.End(usersHandle))
	require.NoError(t, s.End(ordersHandle))
	require.NoError(t, s.Commit())

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)

	var users []map[string]int
	require.NoError(t, json.Unmarshal(decoded["users"], &users))
	assert.Equal(t, []map[string]int{{"id": 1}, {"id": 2}}, users)

	// First-Begin order ("users" then "orders") is preserved in the raw
	// bytes even though map iteration order would not guarantee it.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"users"`)), bytes.Index(buf.Bytes(), []byte(`"orders"`)))
}

func TestWriteAfterEndFails(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)
	h, err := s.Begin("users", 0)
	require.NoError(t, err)
	require.NoError(t, s.End(h))

	err = s.Write(h, value.Object{{Name: "id", Value: value.Int(1)}})
	assert.Error(t, err)
}
