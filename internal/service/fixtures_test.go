package service

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"catalog-admin/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func pngPayload(name string) domain.ImagePayload {
	return domain.ImagePayload{Filename: name, Data: pngHeader}
}

func pngBase64() domain.ImagePayload {
	return domain.ImagePayload{Base64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)}
}

// memDisk is an in-memory storage.Disk with read helpers for assertions
type memDisk struct {
	mu      sync.Mutex
	files   map[string][]byte
	failPut bool
}

func newMemDisk() *memDisk {
	return &memDisk{files: map[string][]byte{}}
}

func (d *memDisk) Put(_ context.Context, path string, content []byte, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPut {
		return errors.New("disk full")
	}
	d.files[path] = content
	return nil
}

func (d *memDisk) Get(_ context.Context, path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, ok := d.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return content, nil
}

func (d *memDisk) Exists(_ context.Context, path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[path]
	return ok
}

func (d *memDisk) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

func (d *memDisk) URL(path string) string { return "/files/" + path }

func (d *memDisk) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.files))
	for p := range d.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// recordingSink keeps every flushed batch
type recordingSink struct {
	mu      sync.Mutex
	batches [][]domain.AuditRecord
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Flush(_ context.Context, records []domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]domain.AuditRecord(nil), records...))
	return s.err
}

func (s *recordingSink) last() []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// recordingObserver counts pipeline outcomes by operation and code
type recordingObserver struct {
	mu        sync.Mutex
	pipelines map[string]int
	flushes   map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{pipelines: map[string]int{}, flushes: map[string]int{}}
}

func (o *recordingObserver) ObservePipeline(op, code string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pipelines[op+"/"+code]++
}

func (o *recordingObserver) ObserveAuditFlush(sink, outcome string, _ int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes[sink+"/"+outcome]++
}

type harness struct {
	store    *memStore
	disk     *memDisk
	sink     *recordingSink
	observer *recordingObserver
	products ProductService
	catalog  CatalogService
	actor    domain.Actor
}

func newHarness(t testing.TB) *harness {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))

	store := newMemStore()
	disk := newMemDisk()
	sink := &recordingSink{}
	observer := newRecordingObserver()

	deps := Deps{
		Store:    store,
		Images:   NewImageResolver(disk, "images", logger),
		Audit:    NewAuditRecorder(logger, observer, time.Second, sink),
		Observer: observer,
		Logger:   logger,
	}

	return &harness{
		store:    store,
		disk:     disk,
		sink:     sink,
		observer: observer,
		products: NewProductService(deps),
		catalog:  NewCatalogService(deps),
		actor:    domain.Actor{ID: "admin-1", Name: "Admin", Role: "admin"},
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
