package lode

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

func testMeta() types.BuildMeta {
	return types.BuildMeta{
		BuildID:     "b-001",
		PackageName: "icudt",
		Mode:        types.BuildModeMain,
		Platform:    types.PlatformLinux,
	}
}

func readObject(t *testing.T, store lode.Store, key string) string {
	t.Helper()
	rc, err := store.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %q: %v", key, err)
	}
	return string(data)
}

func TestBuildPrefix(t *testing.T) {
	want := "builds/package=icudt/platform=linux/build_id=b-001"
	if got := BuildPrefix(testMeta()); got != want {
		t.Errorf("BuildPrefix() = %q, want %q", got, want)
	}
}

func TestPublisher_Publish(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "icudt.dat")
	if err := os.WriteFile(archive, []byte("archive-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := lode.NewMemory()
	collector := metrics.NewCollector("icudt", "linux", "main", "b-001")
	p := NewPublisher(sharedFactory(store), collector)

	result, err := p.Publish(t.Context(), testMeta(), []PublishFile{
		{Name: "icudt.dat", Path: archive},
		{Name: "build.record", Data: []byte("record")},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	prefix := "builds/package=icudt/platform=linux/build_id=b-001"
	wantKeys := []string{prefix + "/icudt.dat", prefix + "/build.record"}
	if len(result.Keys) != len(wantKeys) {
		t.Fatalf("Keys = %v, want %v", result.Keys, wantKeys)
	}
	for i, k := range wantKeys {
		if result.Keys[i] != k {
			t.Errorf("Keys[%d] = %q, want %q", i, result.Keys[i], k)
		}
	}

	if got := readObject(t, store, wantKeys[0]); got != "archive-bytes" {
		t.Errorf("archive object = %q", got)
	}
	if got := readObject(t, store, wantKeys[1]); got != "record" {
		t.Errorf("record object = %q", got)
	}

	snap := collector.Snapshot()
	if snap.PublishSuccess != 1 || snap.PublishFailure != 0 {
		t.Errorf("publish counters = %d/%d, want 1/0", snap.PublishSuccess, snap.PublishFailure)
	}
}

func TestPublisher_InvalidName(t *testing.T) {
	store := &failingStore{}
	p := NewPublisher(sharedFactory(store), nil)

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		_, err := p.Publish(t.Context(), testMeta(), []PublishFile{{Name: name, Data: []byte("x")}})
		if !errors.Is(err, ErrInvalidFileName) {
			t.Errorf("Publish(%q) error = %v, want ErrInvalidFileName", name, err)
		}
	}
	if len(store.PutPaths) != 0 {
		t.Errorf("no objects should be written, got %v", store.PutPaths)
	}
}

func TestPublisher_PutFailure(t *testing.T) {
	store := &failingStore{PutErr: errors.New("AccessDenied: bucket policy")}
	collector := metrics.NewCollector("icudt", "linux", "main", "b-001")
	p := NewPublisher(sharedFactory(store), collector)

	result, err := p.Publish(t.Context(), testMeta(), []PublishFile{
		{Name: "a.dat", Data: []byte("a")},
		{Name: "b.dat", Data: []byte("b")},
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Publish() error = %v, want ErrAccessDenied", err)
	}
	if len(result.Keys) != 0 {
		t.Errorf("Keys = %v, want none", result.Keys)
	}
	if len(store.PutPaths) != 1 {
		t.Errorf("Put calls = %d, want 1 (stop at first failure)", len(store.PutPaths))
	}
	if got := collector.Snapshot().PublishFailure; got != 1 {
		t.Errorf("PublishFailure = %d, want 1", got)
	}
}

func TestPublisher_FactoryFailure(t *testing.T) {
	p := NewPublisher(func() (lode.Store, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, nil)

	_, err := p.Publish(t.Context(), testMeta(), []PublishFile{{Name: "a", Data: []byte("a")}})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Publish() error = %v, want ErrNetwork", err)
	}
}

func TestPublisher_MissingLocalFile(t *testing.T) {
	p := NewPublisher(sharedFactory(lode.NewMemory()), nil)
	_, err := p.Publish(t.Context(), testMeta(), []PublishFile{
		{Name: "icudt.dat", Path: filepath.Join(t.TempDir(), "missing.dat")},
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Publish() error = %v, want os.ErrNotExist", err)
	}
}

func TestPublisher_InvalidMeta(t *testing.T) {
	p := NewPublisher(sharedFactory(lode.NewMemory()), nil)
	meta := testMeta()
	meta.BuildID = ""
	if _, err := p.Publish(t.Context(), meta, nil); err == nil {
		t.Fatal("expected error for empty build id")
	}
}
