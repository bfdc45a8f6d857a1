package rtadapt_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.hybscloud.com/glasrt/rtadapt"
)

func TestLoaderReadsAndCachesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.glas")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l := rtadapt.NewLoader(nil, nil)
	defer l.Close()

	bs, err := l.LoadBinary(path)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if string(bs) != "hello" {
		t.Fatalf("bs=%q, want hello", bs)
	}
}

func TestLoaderInvalidatesOnEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.glas")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l := rtadapt.NewLoader(nil, nil)
	defer l.Close()

	bs, err := l.LoadBinary(path)
	if err != nil || string(bs) != "v1" {
		t.Fatalf("first load = %q, %v", bs, err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// fsnotify delivery is asynchronous; poll for the memo to drop rather
	// than asserting immediately.
	deadline := time.Now().Add(2 * time.Second)
	for {
		bs, err = l.LoadBinary(path)
		if err == nil && string(bs) == "v2" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("last load = %q, %v, want v2 within deadline", bs, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

type fakeVFS struct {
	prefix string
	data   map[string][]byte
}

func (f fakeVFS) VirtualizePath(uri string) bool { return len(uri) >= len(f.prefix) && uri[:len(f.prefix)] == f.prefix }
func (f fakeVFS) TryLoadBinary(uri string) ([]byte, error) {
	bs, ok := f.data[uri]
	if !ok {
		return nil, errors.New("not found")
	}
	return bs, nil
}

func TestLoaderRoutesVirtualPaths(t *testing.T) {
	vfs := fakeVFS{prefix: "virtual:", data: map[string][]byte{"virtual:conf": []byte("from vfs")}}
	l := rtadapt.NewLoader(vfs, nil)
	defer l.Close()

	bs, err := l.LoadBinary("virtual:conf")
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if string(bs) != "from vfs" {
		t.Fatalf("bs=%q, want %q", bs, "from vfs")
	}
}

func TestResolveInheritsVirtualization(t *testing.T) {
	vfs := fakeVFS{prefix: "virtual:", data: map[string][]byte{"virtual:sub/child": []byte("child")}}
	l := rtadapt.NewLoader(vfs, nil)
	defer l.Close()

	if _, err := l.LoadBinary("virtual:sub/root"); err == nil {
		t.Fatal("expected 'virtual:sub/root' to miss the fake vfs data map")
	}
	rel := l.Resolve("virtual:sub/root", "child")
	bs, err := l.LoadBinary(rel)
	if err != nil {
		t.Fatalf("LoadBinary(%q): %v", rel, err)
	}
	if string(bs) != "child" {
		t.Fatalf("bs=%q, want child", bs)
	}
}
