package blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory.
// Intended for local development and tests; contents are lost on restart.
type MemoryStore struct {
	objects map[string]memoryObject
	now     func() time.Time
	mu      sync.RWMutex
}

type memoryObject struct {
	data []byte
	meta Object
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Put reads r fully and stores a copy of its content.
func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := newPutOptions(opts...)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	sum := md5.Sum(data)
	obj := Object{
		Pathname:       key,
		ContentType:    o.contentType,
		Size:           int64(len(data)),
		HTTPEtag:       `"` + hex.EncodeToString(sum[:]) + `"`,
		UploadedAt:     s.now().UTC(),
		CustomMetadata: maps.Clone(o.metadata),
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, meta: obj}
	s.mu.Unlock()

	return cloneObject(&obj), nil
}

// Get returns a reader over a snapshot of the object content.
func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), cloneObject(&obj.meta), nil
}

// Head returns the stored descriptor.
func (s *MemoryStore) Head(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return cloneObject(&obj.meta), nil
}

// Delete removes the object if present.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func cloneObject(o *Object) *Object {
	c := *o
	c.CustomMetadata = maps.Clone(o.CustomMetadata)
	return &c
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Pinger = (*MemoryStore)(nil)
)
