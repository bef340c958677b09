package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Daskott/haven/server/gstorage"
	"github.com/Daskott/haven/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects   map[string][]byte
	downloads int
	uploaded  map[string][]byte
	dbPath    string
}

func (f *fakeBucket) DownloadFile(ctx context.Context, destFilePath string) error {
	f.downloads++
	data, ok := f.objects[filepath.Base(destFilePath)]
	if !ok {
		return gstorage.ErrObjectNotExist
	}
	return os.WriteFile(destFilePath, data, 0600)
}

func (f *fakeBucket) UploadFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	f.uploaded[filepath.Base(filePath)] = data
	return nil
}

func (f *fakeBucket) Snapshot(destFilePath string) error {
	if _, err := os.Stat(destFilePath); err == nil {
		return errors.New("output file already exists")
	}
	return os.WriteFile(destFilePath, []byte("snapshot"), 0600)
}

func (f *fakeBucket) Path() string {
	return f.dbPath
}

func TestRestoreSqliteDb(t *testing.T) {
	ctx := context.Background()

	t.Run("Should start fresh without a backup", func(t *testing.T) {
		bucket := &fakeBucket{objects: map[string][]byte{}}
		dbPath := filepath.Join(t.TempDir(), "haven.db")

		require.NoError(t, restoreSqliteDb(ctx, bucket, dbPath))
		assert.Equal(t, 1, bucket.downloads)
		assert.NoFileExists(t, dbPath)
	})

	t.Run("Should restore backup when db is missing", func(t *testing.T) {
		bucket := &fakeBucket{objects: map[string][]byte{"haven.db": []byte("backup")}}
		dbPath := filepath.Join(t.TempDir(), "haven.db")

		require.NoError(t, restoreSqliteDb(ctx, bucket, dbPath))
		data, err := os.ReadFile(dbPath)
		require.NoError(t, err)
		assert.Equal(t, "backup", string(data))
	})

	t.Run("Should keep local db", func(t *testing.T) {
		bucket := &fakeBucket{objects: map[string][]byte{"haven.db": []byte("backup")}}
		dbPath := filepath.Join(t.TempDir(), "haven.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("local"), 0600))

		require.NoError(t, restoreSqliteDb(ctx, bucket, dbPath))
		assert.Equal(t, 0, bucket.downloads)
	})
}

func TestBackupSqliteDb(t *testing.T) {
	t.Run("Should upload a snapshot under the db's name", func(t *testing.T) {
		bucket := &fakeBucket{dbPath: "/var/haven/db/haven.db", uploaded: map[string][]byte{}}
		backup := &sqliteBackup{storage: bucket, db: bucket}

		require.NoError(t, backup.run(nil))
		assert.Equal(t, map[string][]byte{"haven.db": []byte("snapshot")}, bucket.uploaded)

		require.NoError(t, backup.run(nil), "Snapshots should not be left behind")
	})

	t.Run("Should upload a readable copy of a live sqlite db", func(t *testing.T) {
		store, err := models.NewSqlStore("test-passphrase", t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		ctx := context.Background()
		require.NoError(t, store.SaveDeviceTokens(ctx, "u1", []string{"t1"}))

		bucket := &fakeBucket{uploaded: map[string][]byte{}}
		backup := &sqliteBackup{storage: bucket, db: store}
		require.NoError(t, backup.run(nil))

		data, ok := bucket.uploaded[models.DB_NAME]
		require.True(t, ok)

		restoreDir := t.TempDir()
		dbPath, err := models.DbFilePath(restoreDir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(dbPath, data, 0600))

		restored, err := models.NewSqlStore("test-passphrase", restoreDir)
		require.NoError(t, err)
		defer restored.Close()

		user, err := restored.FindUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, user.Tokens())
	})
}
