package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "bev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.StartSession(":56001", cloud.DefaultBEVWindow(), "bench run")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sum := cloud.Summarize([]cloud.Point{
		{X: 1, Y: 2, Z: 0.05, Intensity: 100, Tag: 1, Line: 3, Timestamp: 123.456},
	})
	require.NoError(t, s.RecordFrameSummary(id, "livox_frame", 10, 1, sum))
	require.NoError(t, s.RecordFrameSummary(id, "livox_frame", 12, 3, sum))
	require.NoError(t, s.EndSession(id))

	sessions, err := s.RecentSessions(5)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, id, sessions[0].ID)
	require.Equal(t, 2, sessions[0].FrameCount)
	require.NotNil(t, sessions[0].EndTimestamp)
	require.InDelta(t, -0.1, sessions[0].ZMin, 1e-6)
	require.InDelta(t, 0.2, sessions[0].ZMax, 1e-6)
}

func TestRecentSummariesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	id, err := s.StartSession(":56001", cloud.DefaultBEVWindow(), "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sum := cloud.Summarize([]cloud.Point{{X: float32(i), Intensity: float32(i * 10)}})
		require.NoError(t, s.RecordFrameSummary(id, "livox_frame", i+1, i, sum))
	}

	rows, err := s.RecentSummaries(2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Greater(t, rows[0].ID, rows[1].ID)
	require.Equal(t, 3, rows[0].InputPoints)
	require.NotNil(t, rows[0].XMin)
	require.InDelta(t, 2.0, *rows[0].XMin, 1e-6)
}

func TestEmptySummaryStoresNulls(t *testing.T) {
	s := newTestStore(t)

	id, err := s.StartSession(":56001", cloud.DefaultBEVWindow(), "")
	require.NoError(t, err)

	require.NoError(t, s.RecordFrameSummary(id, "livox_frame", 0, 0, cloud.Summarize(nil)))

	rows, err := s.RecentSummaries(1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].XMin)
	require.Nil(t, rows[0].IntensityMean)
	require.Equal(t, 0, rows[0].OutputPoints)
}
