package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterTracksPerCollectionProgress(t *testing.T) {
	r := NewReporter(map[string]int{"users": 10, "orders": 5})

	r.SetCurrent("users")
	r.Increment("users")
	r.Increment("users")
	r.Finish("orders")

	snap := r.Snapshot()
	assert.Equal(t, "users", snap.Current)
	assert.Equal(t, 10, snap.Totals["users"])
	assert.Equal(t, 2, snap.Completed["users"])
	assert.False(t, snap.Finished["users"])
	assert.True(t, snap.Finished["orders"])
	assert.GreaterOrEqual(t, snap.ElapsedMS, int64(0))
}

func TestSnapshotIsAnIndependentCopy(t *testing.T) {
	r := NewReporter(map[string]int{"users": 1})
	snap := r.Snapshot()
	snap.Totals["users"] = 999
	snap.Completed["users"] = 999

	fresh := r.Snapshot()
	assert.Equal(t, 1, fresh.Totals["users"])
	assert.Equal(t, 0, fresh.Completed["users"])
}
