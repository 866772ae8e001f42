package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

// ErrInvalidFileName is returned for publish names that are not plain file names.
var ErrInvalidFileName = errors.New("invalid publish file name")

// PublishFile is one object to upload. Data takes precedence over Path.
type PublishFile struct {
	// Name is the object name under the build prefix.
	Name string
	// Path is a local file to upload.
	Path string
	// Data is uploaded as-is when non-nil.
	Data []byte
}

// PublishResult lists the keys written for a build.
type PublishResult struct {
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
}

// Publisher uploads build outputs under a Hive-partitioned prefix:
//
//	builds/package=<pkg>/platform=<platform>/build_id=<id>/<name>
//
// The store is created lazily on first use.
type Publisher struct {
	factory   lode.StoreFactory
	collector *metrics.Collector

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// NewPublisher creates a publisher. collector may be nil.
func NewPublisher(factory lode.StoreFactory, collector *metrics.Collector) *Publisher {
	return &Publisher{factory: factory, collector: collector}
}

// BuildPrefix returns the object prefix for a build.
func BuildPrefix(meta types.BuildMeta) string {
	return fmt.Sprintf("builds/package=%s/platform=%s/build_id=%s",
		meta.PackageName, meta.Platform, meta.BuildID)
}

// Publish uploads files in order and stops at the first failure.
// Keys written before the failure are reported in the result.
func (p *Publisher) Publish(ctx context.Context, meta types.BuildMeta, files []PublishFile) (*PublishResult, error) {
	result := &PublishResult{Prefix: BuildPrefix(meta)}

	if err := meta.Validate(); err != nil {
		p.collector.IncPublishFailure()
		return result, err
	}
	for _, f := range files {
		if err := validateFileName(f.Name); err != nil {
			p.collector.IncPublishFailure()
			return result, err
		}
	}

	store, err := p.getOrCreateStore()
	if err != nil {
		p.collector.IncPublishFailure()
		return result, wrapStorageError("init", result.Prefix, err)
	}

	for _, f := range files {
		key := path.Join(result.Prefix, f.Name)
		if err := p.put(ctx, store, key, f); err != nil {
			p.collector.IncPublishFailure()
			return result, err
		}
		result.Keys = append(result.Keys, key)
	}

	p.collector.IncPublishSuccess()
	return result, nil
}

func (p *Publisher) put(ctx context.Context, store lode.Store, key string, f PublishFile) error {
	var r io.Reader
	if f.Data != nil {
		r = bytes.NewReader(f.Data)
	} else {
		file, err := os.Open(f.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Path, err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	return wrapStorageError("put", key, store.Put(ctx, key, r))
}

func (p *Publisher) getOrCreateStore() (lode.Store, error) {
	p.storeOnce.Do(func() {
		p.store, p.storeErr = p.factory()
	})
	return p.store, p.storeErr
}

func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}
