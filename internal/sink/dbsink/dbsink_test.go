package dbsink

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/loomgen/loom/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenEndCommitsRowsToOneTablePerCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	h, err := s.Begin("users", 2)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, value.Object{{Name: "id", Value: value.Int(1)}}))
	require.NoError(t, s.Write(h, value.Object{{Name: "id", Value: value.Int(2)}}))
	require.NoError(t, s.End(h))
	require.NoError(t, s.Commit())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT data FROM "users" ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var got []map[string]int
	for rows.Next() {
		var raw string
		require.NoError(t, rows.Scan(&raw))
		var decoded map[string]int
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		got = append(got, decoded)
	}
	assert.Equal(t, []map[string]int{{"id": 1}, {"id": 2}}, got)
}

func TestBeginRejectsNonIdentifierCollectionNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Begin(`users"; DROP TABLE users; --`, 0)
	assert.Error(t, err)
}

func TestBeginTwiceForSameCollectionWithoutEndFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Begin("users", 0)
	require.NoError(t, err)
	_, err = s.Begin("users", 0)
	assert.Error(t, err)
}
