package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProviderNow(t *testing.T) {
	p, err := New("* * * * *")
	require.NoError(t, err)

	p.SetSource(func() time.Time {
		return time.Date(2019, 1, 15, 10, 30, 0, 0, time.UTC)
	})

	now := p.Now()
	require.Equal(t, "2019-01-15 10:30", now.Date)
	require.Equal(t, 2, now.Weekday)
}

func TestProviderRejectsBadSchedule(t *testing.T) {
	_, err := New("every now and then")
	require.Error(t, err)
}

func TestProviderStartStop(t *testing.T) {
	p, err := New("* * * * *")
	require.NoError(t, err)
	p.Start()
	p.Stop()
	require.NotEmpty(t, p.Now().Date)
}
