package cache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	key := Key([]byte("MThd..."), "x86_64-unknown-linux-gnu", 0)
	want := &Artifact{
		IR:       "define i32 @main() {\n}\n",
		TapeSize: 30000,
		Origin:   2,
		Triple:   "x86_64-unknown-linux-gnu",
	}
	if err := s.Put(key, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if *got != *want {
		t.Errorf("artifact = %+v, want %+v", got, want)
	}
}

func TestStoreMiss(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.Get(Key([]byte("nothing"), "", 0)); ok {
		t.Error("expected miss on empty store")
	}
}

func TestStoreReplace(t *testing.T) {
	s := openTestStore(t)
	key := Key([]byte("src"), "", 0)
	if err := s.Put(key, &Artifact{IR: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(key, &Artifact{IR: "new"}); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get(key)
	if !ok || got.IR != "new" {
		t.Errorf("artifact = %+v, want replacement", got)
	}
}

func TestStoreCorruptRowIsMiss(t *testing.T) {
	s := openTestStore(t)
	key := Key([]byte("src"), "", 0)
	if _, err := s.db.Exec(
		"INSERT INTO artifacts (key, data) VALUES (?, ?)", key, []byte{0xFF, 0x00},
	); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(key); ok {
		t.Error("corrupt row should be a miss")
	}
}

func TestKeySensitivity(t *testing.T) {
	base := Key([]byte("abc"), "t1", 0)
	if Key([]byte("abd"), "t1", 0) == base {
		t.Error("key ignores source bytes")
	}
	if Key([]byte("abc"), "t2", 0) == base {
		t.Error("key ignores triple")
	}
	if Key([]byte("abc"), "t1", 4096) == base {
		t.Error("key ignores tape-size override")
	}
	if Key([]byte("abc"), "t1", 0) != base {
		t.Error("key is not stable")
	}
}
