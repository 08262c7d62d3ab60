package filestorage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStoragePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	content := []byte("%PDF-1.4 test document")
	info, err := store.Put(ctx, "applications/schoolFees/abc/marksheet.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", info.Size, len(content))
	}
	if info.Digest != Digest(content) {
		t.Errorf("digest = %s, want %s", info.Digest, Digest(content))
	}

	rc, err := store.Get(ctx, info.Key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}

	if err := store.Delete(ctx, info.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, info.Key); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Get after delete = %v, want ErrObjectNotFound", err)
	}
	// Second delete is a no-op.
	if err := store.Delete(ctx, info.Key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../outside", ".."} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader([]byte("x"))); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
	}
}

func TestDigestDiffersByContent(t *testing.T) {
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Fatal("digests of different content must differ")
	}
	if len(Digest(nil)) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(Digest(nil)))
	}
}
