package app

import (
	"context"

	"github.com/shedrachokonofua/lute-sub001/pkg/kv"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const contentNamespace = "raw-content"

// blobStore is a local stand-in for the object store spec.md §1 lists as
// an external collaborator. It satisfies parser.ContentSource so the
// fabric is self-contained and testable without a real blob backend;
// production deployments would point Dispatcher at an S3/GCS-backed
// implementation of the same interface instead.
type blobStore struct {
	kv *kv.Store
}

func newBlobStore(kvStore *kv.Store) *blobStore {
	return &blobStore{kv: kvStore}
}

// Put stores data under fileName, retained indefinitely (raw page content
// isn't TTL'd the way derived caches are).
func (b *blobStore) Put(fileName types.FileName, data []byte) error {
	return b.kv.Set(contentNamespace, fileName.String(), data, 0)
}

// GetContent implements parser.ContentSource.
func (b *blobStore) GetContent(_ context.Context, fileName types.FileName) ([]byte, error) {
	data, found, err := b.kv.Get(contentNamespace, fileName.String())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, luterr.NotFound("file content not found: "+fileName.String(), nil)
	}
	return data, nil
}

// List returns every file name currently stored, for FileService.ListFiles.
func (b *blobStore) List() ([]string, error) {
	return b.kv.Keys(contentNamespace)
}
