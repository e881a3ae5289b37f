package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/streamtest/internal/scenario"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Archive stores run results in a gocloud.dev bucket, supporting S3, GCS,
// Azure Blob Storage, local directories, and memory
type Archive struct {
	bucket *blob.Bucket
	prefix string
}

var ErrRunNotFound = errors.New("archived run not found")

// OpenArchive opens the bucket at bucketURL. Keys are written below prefix
func OpenArchive(
	ctx context.Context, bucketURL, prefix string,
) (*Archive, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Archive{bucket: bucket, prefix: prefix}, nil
}

// Put writes results for runID as JSON lines, replacing any earlier run
// with the same id
func (a *Archive) Put(
	ctx context.Context, runID string, results []*scenario.Result,
) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	opts := &blob.WriterOptions{ContentType: "application/x-ndjson"}
	return a.bucket.WriteAll(ctx, a.keyFor(runID), buf.Bytes(), opts)
}

func (a *Archive) Get(
	ctx context.Context, runID string,
) ([]*scenario.Result, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(runID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var res []*scenario.Result
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var r scenario.Result
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, nil
}

func (a *Archive) Delete(ctx context.Context, runID string) error {
	err := a.bucket.Delete(ctx, a.keyFor(runID))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (a *Archive) Close() error {
	return a.bucket.Close()
}

func (a *Archive) keyFor(runID string) string {
	return a.prefix + runID + ".jsonl"
}
