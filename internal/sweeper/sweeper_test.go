package sweeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	return p
}

func TestSweeperDeletesAfterDelay(t *testing.T) {
	dir := t.TempDir()
	s := New(time.Hour)
	defer s.Stop()

	p := writeFile(t, dir, "a.mp4")
	s.ScheduleAfter(p, 30*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeperMissingFileIsNoOp(t *testing.T) {
	s := New(time.Hour)
	defer s.Stop()

	s.ScheduleAfter(filepath.Join(t.TempDir(), "gone.mp4"), 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
}

func TestSweeperOrdersByDueTime(t *testing.T) {
	dir := t.TempDir()
	s := New(time.Hour)
	defer s.Stop()

	later := writeFile(t, dir, "later.mp4")
	sooner := writeFile(t, dir, "sooner.mp4")

	s.ScheduleAfter(later, 10*time.Second)
	s.ScheduleAfter(sooner, 30*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(sooner)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	// The far-future entry must still be present.
	_, err := os.Stat(later)
	assert.NoError(t, err)
}

func TestSweeperHandlesManyEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(time.Hour)
	defer s.Stop()

	var paths []string
	for i := 0; i < 20; i++ {
		p := writeFile(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".mp4")
		paths = append(paths, p)
		s.ScheduleAfter(p, time.Duration(i)*5*time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		for _, p := range paths {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	s := New(time.Hour)
	s.Stop()
	s.Stop()
}
