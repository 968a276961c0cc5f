package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/database"
	testingpkg "github.com/aristath/frontier/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ObjectStore
type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string][]byte{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func newTestDatabases(t *testing.T) []*database.DB {
	universeDB, cleanupUniverse := testingpkg.NewTestDB(t, "universe")
	t.Cleanup(cleanupUniverse)
	historyDB, cleanupHistory := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanupHistory)

	testingpkg.SeedDailyPrices(t, historyDB.Conn(), testingpkg.NewPriceFixtures(5, "AAA"))
	return []*database.DB{universeDB, historyDB}
}

func TestBackupService_CreateAndUploadBackup(t *testing.T) {
	store := newMemoryStore()
	service := NewBackupService(newTestDatabases(t), store, t.TempDir(), 30, zerolog.Nop())
	service.now = func() time.Time { return time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC) }

	info, err := service.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "frontier-backup-2024-07-01-030000.tar.gz", info.Filename)
	assert.Equal(t, []string{info.Filename}, store.keys())

	files := readArchive(t, store.objects[info.Filename])
	require.Contains(t, files, "universe.db")
	require.Contains(t, files, "history.db")
	require.Contains(t, files, metadataFile)

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFile], &metadata))
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "universe", metadata.Databases[0].Name)
	assert.Equal(t, int64(len(files["history.db"])), metadata.Databases[1].SizeBytes)
	assert.True(t, strings.HasPrefix(metadata.Databases[1].Checksum, "sha256:"))
}

func TestBackupService_UploadFailure(t *testing.T) {
	store := newMemoryStore()
	store.uploadErr = errors.New("bucket gone")
	service := NewBackupService(newTestDatabases(t), store, t.TempDir(), 30, zerolog.Nop())

	_, err := service.CreateAndUploadBackup(context.Background())
	assert.ErrorContains(t, err, "bucket gone")
}

func TestBackupService_RotateOldBackups(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, days := range []int{1, 2, 40, 50, 60} {
		key := backupPrefix + now.AddDate(0, 0, -days).Format(backupTimestamp) + backupSuffix
		store.objects[key] = []byte("x")
	}
	store.objects["unrelated.txt"] = []byte("x")
	store.objects[backupPrefix+"garbage"+backupSuffix] = []byte("x")

	service := NewBackupService(nil, store, t.TempDir(), 30, zerolog.Nop())
	service.now = func() time.Time { return now }

	backups, err := service.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 5)
	assert.Equal(t, int64(24), backups[0].AgeHours, "newest first")

	require.NoError(t, service.RotateOldBackups(context.Background()))

	backups, err = service.ListBackups(context.Background())
	require.NoError(t, err)
	// Three newest are kept even though one is past retention
	require.Len(t, backups, 3)
	assert.Equal(t, now.AddDate(0, 0, -40), backups[2].Timestamp)
}

func TestBackupService_RotateKeepsForever(t *testing.T) {
	store := newMemoryStore()
	for i := 0; i < 5; i++ {
		store.objects[backupPrefix+time.Date(2020, 1, i+1, 0, 0, 0, 0, time.UTC).Format(backupTimestamp)+backupSuffix] = nil
	}

	service := NewBackupService(nil, store, t.TempDir(), 0, zerolog.Nop())
	require.NoError(t, service.RotateOldBackups(context.Background()))
	assert.Len(t, store.keys(), 5)
}
