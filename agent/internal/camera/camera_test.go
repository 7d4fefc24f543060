package camera

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"talk2cam/agent/internal/db"
)

func TestCaptureRequiresViewfinder(t *testing.T) {
	c := New(nil, "/photos", "s1")
	require.ErrorIs(t, c.CapturePhoto(), ErrNotOpen)
	require.ErrorIs(t, c.StartViewfinder(), ErrNotOpen)

	require.NoError(t, c.Open())
	require.ErrorIs(t, c.CapturePhoto(), ErrNotOpen)
	require.NoError(t, c.StartViewfinder())
	require.NoError(t, c.CapturePhoto())
}

func TestVisibility(t *testing.T) {
	c := New(nil, "/photos", "s1")
	require.False(t, c.IsViewfinderVisible())
	require.NoError(t, c.SetVisible(true))
	require.True(t, c.IsViewfinderVisible())
}

func TestCaptureRecordsPhoto(t *testing.T) {
	gdb, err := db.Open("sqlite", filepath.Join(t.TempDir(), "camera.db"))
	require.NoError(t, err)

	c := New(gdb, "/photos", "session-1")
	require.NoError(t, c.Open())
	require.NoError(t, c.StartViewfinder())
	require.NoError(t, c.CapturePhoto())

	last, ok := c.LastPhoto()
	require.True(t, ok)
	require.Equal(t, "session-1", last.SessionID)
	require.Equal(t, filepath.Join("/photos", last.ID+".jpg"), last.FileName)

	var rows []db.Photo
	require.NoError(t, gdb.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, last.ID, rows[0].ID)
}
