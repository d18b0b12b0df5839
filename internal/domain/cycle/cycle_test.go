package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseHour verifies accepted spellings and rejection of other hours.
func TestParseHour(t *testing.T) {
	t.Parallel()

	cases := map[string]Hour{
		"0":  Hour00,
		"00": Hour00,
		"6":  Hour06,
		"06": Hour06,
		"12": Hour12,
		"18": Hour18,
	}
	for s, want := range cases {
		got, err := ParseHour(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got)
	}

	for _, s := range []string{"", "03", "24", "x", "-6"} {
		_, err := ParseHour(s)
		require.ErrorIs(t, err, ErrInvalidHour, s)
	}
}

// TestHourLabel checks the two-digit rendering used in dataset paths.
func TestHourLabel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00", Hour00.Label())
	require.Equal(t, "06", Hour06.Label())
	require.Equal(t, "18z", Hour18.String())
}

// TestLatest ensures the most recent cycle wins regardless of input order.
func TestLatest(t *testing.T) {
	t.Parallel()

	h, ok := Latest([]Hour{Hour12, Hour18})
	require.True(t, ok)
	require.Equal(t, Hour18, h)

	h, ok = Latest([]Hour{Hour00, Hour06})
	require.True(t, ok)
	require.Equal(t, Hour06, h)

	_, ok = Latest(nil)
	require.False(t, ok)

	_, ok = Latest([]Hour{Hour(3)})
	require.False(t, ok)
}

// TestIdentity_StringParseRoundtrip verifies the persisted identity format.
func TestIdentity_StringParseRoundtrip(t *testing.T) {
	t.Parallel()

	id := NewIdentity(DateOf(time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC)), Hour06)
	require.Equal(t, "20240307_06", id.String())

	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	empty, err := ParseIdentity("")
	require.NoError(t, err)
	require.True(t, empty.IsZero())
	require.Empty(t, empty.String())

	for _, s := range []string{"20240307", "2024-03-07_06", "20240307_07", "garbage_00"} {
		_, err = ParseIdentity(s)
		require.ErrorIs(t, err, ErrInvalidIdentity, s)
	}
}

// TestDateOf uses the UTC calendar day of the instant.
func TestDateOf(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+3", 3*60*60)
	d := DateOf(time.Date(2024, time.January, 2, 1, 0, 0, 0, zone))

	require.Equal(t, Date{Year: 2024, Month: time.January, Day: 1}, d)
	require.Equal(t, "20240101", d.Compact())
	require.Equal(t, "2024-01-01", d.String())
}

// TestIdentity_Equality compares identities by date and hour only.
func TestIdentity_Equality(t *testing.T) {
	t.Parallel()

	day := DateOf(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	next := DateOf(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))

	require.Equal(t, NewIdentity(day, Hour12), NewIdentity(day, Hour12))
	require.NotEqual(t, NewIdentity(day, Hour12), NewIdentity(day, Hour18))
	require.NotEqual(t, NewIdentity(day, Hour00), NewIdentity(next, Hour00))
}

// TestState_Validate rejects completion without a cycle.
func TestState_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())

	bad := &State{IsCompleted: true}
	require.ErrorIs(t, bad.Validate(), ErrCompletedWithoutCycle)

	id := NewIdentity(DateOf(time.Now()), Hour00)
	require.NoError(t, Started(id).Completed().Validate())
}

// TestState_Transitions verifies the helpers never mutate the receiver.
func TestState_Transitions(t *testing.T) {
	t.Parallel()

	id := NewIdentity(DateOf(time.Now()), Hour18)
	started := Started(id)
	completed := started.Completed()

	require.False(t, started.IsCompleted)
	require.True(t, completed.IsCompleted)
	require.Equal(t, id, completed.LastCycle)

	c := completed.Clone()
	require.Equal(t, completed, c)
	require.NotSame(t, completed, c)
}
