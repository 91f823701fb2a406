package middleware

import (
	"context"
	"testing"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func TestNilIdempotencyStoreIsNoop(t *testing.T) {
	var store *IdempotencyStore
	stored, found, err := store.Check(context.Background(), "events.create", "key-1", "hash")
	if err != nil || found || stored != nil {
		t.Fatalf("expected nil store to find nothing, got %v %v %v", stored, found, err)
	}
	if err := store.Save(context.Background(), "events.create", "key-1", "hash", []byte(`{}`)); err != nil {
		t.Fatalf("expected nil store save to succeed, got %v", err)
	}

	empty := NewIdempotencyStore(nil)
	if _, found, _ := empty.Check(context.Background(), "events.create", "key-1", "hash"); found {
		t.Fatalf("expected store without db to find nothing")
	}
}
