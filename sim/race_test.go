package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullBuffer(t *testing.T, eng *Engine, id string) *Buffer {
	t.Helper()
	b, err := NewBuffer(eng, id, C1, 1, 1)
	require.NoError(t, err)
	return b
}

func TestPutAny_StopsAtFirstBufferWithRoom(t *testing.T) {
	eng := NewEngine()
	a := fullBuffer(t, eng, "a")
	b := newTestBuffer(t, eng, "b", C1, 1)
	c := newTestBuffer(t, eng, "c", C1, 1)

	race := PutAny([]*Buffer{a, b, c}, 1, nil)

	require.True(t, race.Done())
	assert.Same(t, b, race.Winner().Buffer)
	assert.Len(t, race.Members(), 2, "no put is issued after the race is decided")
	assert.Equal(t, 0, a.PendingPuts(), "the losing put on a was retracted")
	assert.Equal(t, 0, c.Level())
}

func TestPutAny_AllFull_ExactlyOneCommits(t *testing.T) {
	// GIVEN three full buffers and a unit raced across all of them
	eng := NewEngine()
	bufs := []*Buffer{fullBuffer(t, eng, "a"), fullBuffer(t, eng, "b"), fullBuffer(t, eng, "c")}
	var woke []float64
	owner := &recorder{name: "inspector", at: &woke}
	race := PutAny(bufs, 1, owner)
	require.False(t, race.Done())
	for _, b := range bufs {
		require.Equal(t, 1, b.PendingPuts())
	}

	// WHEN b frees a slot at t=2, and later a and c free slots too
	eng.Schedule(2, &recorder{name: "drain b", hook: func(*Engine) { bufs[1].Get(1, nil) }})
	eng.Schedule(5, &recorder{name: "drain a,c", hook: func(*Engine) {
		bufs[0].Get(1, nil)
		bufs[2].Get(1, nil)
	}})
	eng.Run(10)

	// THEN only b received the unit; the losing puts never deposit
	require.True(t, race.Done())
	assert.Same(t, bufs[1], race.Winner().Buffer)
	assert.Equal(t, 0, bufs[0].Level())
	assert.Equal(t, 1, bufs[1].Level())
	assert.Equal(t, 0, bufs[2].Level())
	total := 0
	for _, b := range bufs {
		total += b.Deposited()
		assert.Equal(t, 0, b.PendingPuts())
	}
	assert.Equal(t, 1, total, "exactly one unit deposited across the race")
	assert.Equal(t, []float64{2}, woke, "owner resumed once")
	for _, m := range race.Members() {
		if m != race.Winner() {
			assert.True(t, m.Cancelled())
		}
	}
}

func TestRace_Cancel_RetractsEveryMember(t *testing.T) {
	eng := NewEngine()
	bufs := []*Buffer{fullBuffer(t, eng, "a"), fullBuffer(t, eng, "b")}
	race := PutAny(bufs, 1, nil)
	race.Cancel()
	for _, b := range bufs {
		b.Get(1, nil)
		assert.Equal(t, 0, b.Level())
		assert.Equal(t, 0, b.PendingPuts())
	}
	assert.False(t, race.Done())
}

func TestGetAll_WaitsForEveryInput(t *testing.T) {
	eng := NewEngine()
	x := newTestBuffer(t, eng, "x", C1, 2)
	y := newTestBuffer(t, eng, "y", C2, 2)
	x.Put(1, nil)

	g := GetAll([]*Buffer{x, y}, 1, nil)

	assert.False(t, g.Done())
	assert.Equal(t, 1, g.Outstanding())
	assert.Len(t, g.Requests(), 2)

	y.Put(1, nil)
	assert.True(t, g.Done())
	assert.Equal(t, 0, g.Outstanding())
	assert.Equal(t, 0, x.Level())
	assert.Equal(t, 0, y.Level())
}
