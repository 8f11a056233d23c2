package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "partners", "p1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "partners", "p1", []byte(`{"name":"Acme"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get(ctx, "partners", "p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"name":"Acme"}` {
		t.Errorf("Get = %s", got)
	}

	// Overwrite is last-writer-wins.
	if err := s.Set(ctx, "partners", "p1", []byte(`{"name":"Acme 2"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = s.Get(ctx, "partners", "p1")
	if string(got) != `{"name":"Acme 2"}` {
		t.Errorf("Get after overwrite = %s", got)
	}
}

func TestMemoryStore_SetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetNX(ctx, "template_versions", "gate-0:v1", []byte(`{}`)); err != nil {
		t.Fatalf("first SetNX failed: %v", err)
	}
	if err := s.SetNX(ctx, "template_versions", "gate-0:v1", []byte(`{"x":1}`)); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("second SetNX = %v, want ErrConflict", err)
	}

	// Losing writer must not overwrite.
	got, _ := s.Get(ctx, "template_versions", "gate-0:v1")
	if string(got) != `{}` {
		t.Errorf("value after conflicting SetNX = %s, want original", got)
	}

	// Same key in another collection is independent.
	if err := s.SetNX(ctx, "templates", "gate-0:v1", []byte(`{}`)); err != nil {
		t.Errorf("SetNX in separate collection = %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Delete(ctx, "partners", "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Delete missing = %v, want ErrNotFound", err)
	}

	_ = s.Set(ctx, "partners", "p1", []byte(`{}`))
	if err := s.Delete(ctx, "partners", "p1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "partners", "p1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	all, err := s.List(ctx, "partners")
	if err != nil {
		t.Fatalf("List on empty store failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List on empty store len = %d, want 0", len(all))
	}

	_ = s.Set(ctx, "partners", "p1", []byte(`1`))
	_ = s.Set(ctx, "partners", "p2", []byte(`2`))
	_ = s.Set(ctx, "templates", "gate-0", []byte(`3`))

	all, err = s.List(ctx, "partners")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List len = %d, want 2", len(all))
	}
	if string(all["p1"]) != `1` || string(all["p2"]) != `2` {
		t.Errorf("List = %v", all)
	}
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte(`{"version":1}`)
	_ = s.Set(ctx, "templates", "gate-0", in)
	in[2] = 'X' // caller mutates its buffer after the write

	got, _ := s.Get(ctx, "templates", "gate-0")
	if string(got) != `{"version":1}` {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}

	got[2] = 'Y' // caller mutates the returned buffer
	again, _ := s.Get(ctx, "templates", "gate-0")
	if string(again) != `{"version":1}` {
		t.Errorf("returned value aliased stored buffer: %s", again)
	}
}
