package gstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/utils"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const TRANSFER_TIMEOUT = 50 * time.Second

var (
	ErrObjectNotExist = storage.ErrObjectNotExist

	logg = logger.NewLogger()
)

// GStorage copies files to & from '<bucket>/<prefix>/<file name>'
type GStorage struct {
	storageClient *storage.Client
	bucket        string
	prefix        string
}

func NewGStorage(ctx context.Context, credentialsFilePath, bucket, prefix string) (*GStorage, error) {
	opts := []option.ClientOption{}
	if credentialsFilePath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFilePath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGStorage: %v", err)
	}

	return &GStorage{storageClient: client, bucket: bucket, prefix: prefix}, nil
}

// UploadFile uploads the file at 'filePath', keeping its base name.
func (gs *GStorage) UploadFile(ctx context.Context, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("os.Open: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, TRANSFER_TIMEOUT)
	defer cancel()

	object := objectName(gs.prefix, filePath)
	wc := gs.storageClient.Bucket(gs.bucket).Object(object).NewWriter(ctx)
	if _, err = io.Copy(wc, f); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %v", err)
	}

	logg.Infof("Blob %v uploaded to bucket %v", object, gs.bucket)
	return nil
}

// DownloadFile downloads the object named after 'destFilePath' into it.
// The local file is only replaced once the whole object has been read.
func (gs *GStorage) DownloadFile(ctx context.Context, destFilePath string) error {
	ctx, cancel := context.WithTimeout(ctx, TRANSFER_TIMEOUT)
	defer cancel()

	object := objectName(gs.prefix, destFilePath)
	rc, err := gs.storageClient.Bucket(gs.bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotExist
	}
	if err != nil {
		return fmt.Errorf("Object(%q).NewReader: %v", object, err)
	}
	defer rc.Close()

	if err := utils.WriteFileAtomically(destFilePath, rc); err != nil {
		return errors.Wrapf(err, "unable to write %v", destFilePath)
	}

	logg.Infof("Blob %v downloaded to local file %v", object, destFilePath)
	return nil
}

func (gs *GStorage) Close() error {
	return gs.storageClient.Close()
}

func objectName(prefix, filePath string) string {
	return path.Join(prefix, filepath.Base(filePath))
}
