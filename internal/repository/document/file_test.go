package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

func docFor(n int) *environment.Document {
	sw := string(environment.SwitchFromBool(n%2 == 0))

	return &environment.Document{
		EmergencyCallActive:   sw,
		HeartRate:             float64(40 + n%130),
		MachineShutdownActive: sw,
		Temperature:           34.5 + float64(n%50)/10,
	}
}

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	data, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, data)
}

// TestFileRepository_SaveLoad ensures Save leaves a complete document and no temp file behind.
func TestFileRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "construction_site.json")
	repo := NewFileRepository(path)
	require.Equal(t, path+".tmp", repo.TempPath())

	want := environment.DefaultSnapshot().Document()
	require.NoError(t, repo.Save(context.Background(), want))

	raw, err := repo.Load(context.Background())
	require.NoError(t, err)

	got, err := environment.ParseDocument(raw)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = os.Stat(repo.TempPath())
	require.ErrorIs(t, err, os.ErrNotExist)

	// Consecutive loads without an intervening save are identical.
	again, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, raw, again)
}

// TestFileRepository_Remove deletes both artifacts and tolerates missing files.
func TestFileRepository_Remove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "construction_site.json")
	repo := NewFileRepository(path)

	require.NoError(t, repo.Save(context.Background(), docFor(1)))
	require.NoError(t, os.WriteFile(repo.TempPath(), []byte("{\"tempe"), 0o600))

	require.NoError(t, repo.Remove(context.Background()))

	for _, p := range []string{repo.Path(), repo.TempPath()} {
		_, err := os.Stat(p)
		require.ErrorIs(t, err, os.ErrNotExist, p)
	}

	require.NoError(t, repo.Remove(context.Background()))
}

// TestFileRepository_SaveFailure reports an error when the directory is gone.
func TestFileRepository_SaveFailure(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing-dir", "construction_site.json"))

	require.Error(t, repo.Save(context.Background(), docFor(1)))
}

// TestFileRepository_ConcurrentReadsAreWhole races a writer against readers;
// every successful read must parse as a complete document.
func TestFileRepository_ConcurrentReadsAreWhole(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "construction_site.json"))
	require.NoError(t, repo.Save(context.Background(), docFor(0)))

	var (
		wg   sync.WaitGroup
		done atomic.Bool
		read atomic.Int64
	)

	wg.Go(func() {
		defer done.Store(true)

		for n := 1; n <= 300; n++ {
			assert.NoError(t, repo.Save(context.Background(), docFor(n)))
		}
	})

	for range 4 {
		wg.Go(func() {
			for !done.Load() {
				raw, err := repo.Load(context.Background())
				if !assert.NoError(t, err) {
					return
				}

				_, err = environment.ParseDocument(raw)
				assert.NoError(t, err)
				read.Add(1)
			}
		})
	}

	wg.Wait()
	require.Positive(t, read.Load())
}
