package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Daskott/haven/server/gstorage"
	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/server/work"
	"github.com/Daskott/haven/utils"
)

const BACKUP_SQLITE_DB_JOB = "backupSqliteDb"

type fileUploader interface {
	UploadFile(ctx context.Context, filePath string) error
}

type fileDownloader interface {
	DownloadFile(ctx context.Context, destFilePath string) error
}

type snapshotter interface {
	Snapshot(destFilePath string) error
	Path() string
}

// sqliteBackup copies the sqlite database to google storage
type sqliteBackup struct {
	storage fileUploader
	db      snapshotter
}

// run uploads a snapshot of the db rather than the live file, which may be
// written to mid upload. The snapshot keeps the db's file name.
func (backup *sqliteBackup) run(map[string]interface{}) error {
	snapshotDir, err := os.MkdirTemp("", "haven-backup-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(snapshotDir)

	snapshotPath := filepath.Join(snapshotDir, filepath.Base(backup.db.Path()))
	if err := backup.db.Snapshot(snapshotPath); err != nil {
		return err
	}

	return backup.storage.UploadFile(context.Background(), snapshotPath)
}

// restoreSqliteDb pulls the last backup from google storage, if there's
// no local database yet.
func restoreSqliteDb(ctx context.Context, storage fileDownloader, dbPath string) error {
	exists, err := utils.FileExist(dbPath)
	if err != nil {
		return err
	}

	if exists {
		logg.Infof("Using local sqlite db at %v", dbPath)
		return nil
	}

	err = storage.DownloadFile(ctx, dbPath)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		logg.Infof("No sqlite db backup found, starting with a new db")
		return nil
	}

	return err
}

func registerJobHandlers(wpa *work.WorkerPoolAdapter, backup *sqliteBackup) error {
	return wpa.Register(BACKUP_SQLITE_DB_JOB, backup.run)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter, backupSchedule string) error {
	return wpa.PeriodicallyPerform(backupSchedule, work.JobParams{
		Name:    BACKUP_SQLITE_DB_JOB,
		Handler: BACKUP_SQLITE_DB_JOB,
		Unique:  true,
		Args:    map[string]interface{}{},
	})
}

var _ snapshotter = (*models.SqlStore)(nil)
