package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yigit/scholarship/internal/pkg/logger"
)

// GridFSStorage keeps objects in a MongoDB GridFS bucket, using the storage
// key as the GridFS file id.
type GridFSStorage struct {
	client     *mongo.Client
	db         *mongo.Database
	bucketName string
	opTimeout  time.Duration
}

// NewGridFSStorage wraps an already connected client.
func NewGridFSStorage(client *mongo.Client, database, bucketName string, opTimeout time.Duration) *GridFSStorage {
	if bucketName == "" {
		bucketName = "documents"
	}
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &GridFSStorage{
		client:     client,
		db:         client.Database(database),
		bucketName: bucketName,
		opTimeout:  opTimeout,
	}
}

func (g *GridFSStorage) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(g.db, options.GridFSBucket().SetName(g.bucketName))
}

// deadline derives a bucket deadline from ctx, bounded by opTimeout.
func (g *GridFSStorage) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(g.opTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// Put uploads r under key. An existing object with the same key is replaced.
func (g *GridFSStorage) Put(ctx context.Context, key string, r io.Reader) (*ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := g.bucket()
	if err != nil {
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}
	if err := b.SetWriteDeadline(g.deadline(ctx)); err != nil {
		return nil, err
	}

	if err := b.Delete(key); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("failed to replace gridfs object: %w", err)
	}

	dr := newDigestReader(r)
	if err := b.UploadFromStreamWithID(key, key, dr); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to upload object to GridFS")
		return nil, fmt.Errorf("failed to upload gridfs object: %w", err)
	}

	info := dr.info(key)
	logger.Debug().Str("key", key).Int64("size", info.Size).Str("bucket", g.bucketName).Msg("Object stored in GridFS")
	return info, nil
}

// Get opens a download stream for key.
func (g *GridFSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := g.bucket()
	if err != nil {
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}
	if err := b.SetReadDeadline(g.deadline(ctx)); err != nil {
		return nil, err
	}

	stream, err := b.OpenDownloadStream(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open gridfs object: %w", err)
	}
	return stream, nil
}

// Delete removes key from the bucket. Missing objects are ignored.
func (g *GridFSStorage) Delete(ctx context.Context, key string) error {
	b, err := g.bucket()
	if err != nil {
		return fmt.Errorf("failed to open gridfs bucket: %w", err)
	}
	if err := b.SetWriteDeadline(g.deadline(ctx)); err != nil {
		return err
	}

	if err := b.Delete(key); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		logger.Error().Err(err).Str("key", key).Msg("Failed to delete GridFS object")
		return fmt.Errorf("failed to delete gridfs object: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (g *GridFSStorage) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}
