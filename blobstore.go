package xarray

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

const BlobStoreType = "BlobStore"

// BlobStore keeps values in a gocloud.dev blob bucket, so arrays can live in
// object storage as well as on local disk. Buckets are opened by URL:
// "mem://" and "file:///path" are always available, other schemes need
// their driver package imported
type BlobStore struct {
	bucket *blob.Bucket
}

var _ Store = (*BlobStore)(nil)

// NewBlobStore opens the bucket at bucketURL. Keys are stored below prefix
// when it is not empty
func NewBlobStore(ctx context.Context, bucketURL, prefix string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", bucketURL, err)
	}
	if prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix)
	}
	return &BlobStore{bucket: bucket}, nil
}

func (s *BlobStore) Type() string { return BlobStoreType }

// Get and Put are not cancellable; the Store interface carries no context
func (s *BlobStore) Get(key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(context.Background(), key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotfound, key)
		}
		return nil, err
	}
	return r, nil
}

func (s *BlobStore) Put(key string, val io.Reader) error {
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, val); err != nil {
		return err
	}
	return s.bucket.WriteAll(context.Background(), key, buf.Bytes(), nil)
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
