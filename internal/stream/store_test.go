package stream

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id string, createdAt time.Time) Item {
	raw := fmt.Sprintf(`{"id":%q,"created_at":%q}`, id, createdAt.Format(time.RFC3339Nano))
	return Item{ID: id, CreatedAt: createdAt, Raw: json.RawMessage(raw)}
}

func TestStore_ObserveSeqMonotonic(t *testing.T) {
	s := NewStore()

	s.ObserveSeq(5)
	assert.Equal(t, int64(5), s.SinceSeq())

	// Replayed and out-of-order sequence numbers never rewind the cursor.
	s.ObserveSeq(3)
	assert.Equal(t, int64(5), s.SinceSeq())

	s.ObserveSeq(9)
	assert.Equal(t, int64(9), s.SinceSeq())
}

func TestStore_ReplaceAllDeduplicatesAndSorts(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.ReplaceAll([]Item{
		testItem("b", base.Add(time.Minute)),
		testItem("a", base),
		testItem("b", base.Add(2*time.Minute)), // duplicate id: first wins
		testItem("c", base.Add(2*time.Minute)),
	})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "c", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, "a", snapshot[2].ID)
}

func TestStore_SortTieBreakIsDeterministic(t *testing.T) {
	s := NewStore()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.ReplaceAll([]Item{
		testItem("zeta", ts),
		testItem("alpha", ts),
		testItem("mid", ts),
	})

	// Equal timestamps fall back to id ordering, so repeated re-sorts
	// never reshuffle the view.
	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"},
		[]string{snapshot[0].ID, snapshot[1].ID, snapshot[2].ID})
}

func TestStore_UpsertReplacesByID(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.ReplaceAll([]Item{testItem("a", base), testItem("b", base.Add(time.Minute))})
	s.Upsert(testItem("a", base.Add(2*time.Minute)))

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, base.Add(2*time.Minute), snapshot[0].CreatedAt)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.ReplaceAll([]Item{testItem("a", base), testItem("b", base)})
	s.Delete("a")
	s.Delete("missing") // no-op

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "b", snapshot[0].ID)
}

func TestParseItem(t *testing.T) {
	item, ok := ParseItem(json.RawMessage(`{"id":"n1","created_at":"2026-03-01T12:00:00Z","title":"hi"}`))
	require.True(t, ok)
	assert.Equal(t, "n1", item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	_, ok = ParseItem(json.RawMessage(`{"created_at":"2026-03-01T12:00:00Z"}`))
	assert.False(t, ok, "missing id")

	_, ok = ParseItem(json.RawMessage(`not json`))
	assert.False(t, ok)
}

func TestItem_MarshalJSONRelaysRawPayload(t *testing.T) {
	raw := json.RawMessage(`{"id":"n1","created_at":"2026-03-01T12:00:00Z","extra":42}`)
	item, ok := ParseItem(raw)
	require.True(t, ok)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}
