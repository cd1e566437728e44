package registry

import (
	"errors"
	"testing"

	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/schema"
)

func action(name string) protocol.Action {
	return protocol.Action{Name: name, Description: name + " action"}
}

func TestRegisterUpsert(t *testing.T) {
	r := New()
	r.Register(action("shoot"), action("jump"))

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	updated := action("shoot")
	updated.Description = "fire the weapon"
	r.Register(updated)

	if r.Len() != 2 {
		t.Fatalf("upsert changed Len() to %d", r.Len())
	}
	got, err := r.Lookup("shoot")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "fire the weapon" {
		t.Errorf("Description = %q, want updated value", got.Description)
	}

	names := r.Names()
	if names[0] != "shoot" || names[1] != "jump" {
		t.Errorf("upsert changed order: %v", names)
	}
}

func TestRegisterNormalizesSchema(t *testing.T) {
	r := New()
	r.Register(protocol.Action{Name: "wait"})

	got, err := r.Lookup("wait")
	if err != nil {
		t.Fatal(err)
	}
	if got.Schema == nil {
		t.Fatal("stored schema is nil")
	}
	if !schema.IsEmpty(got.Schema) {
		t.Errorf("stored schema = %+v, want empty object", got.Schema)
	}
}

func TestUnregisterSilentOnUnknown(t *testing.T) {
	r := New()
	r.Register(action("shoot"), action("jump"), action("wait"))

	r.Unregister("jump", "no-such-action")

	if r.Has("jump") {
		t.Error("jump still registered")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "shoot" || names[1] != "wait" {
		t.Errorf("Names() = %v, want [shoot wait]", names)
	}
}

func TestReplaceAll(t *testing.T) {
	r := New()
	r.Register(action("shoot"), action("jump"))

	r.ReplaceAll(action("north"), action("south"), action("north"))

	if r.Has("shoot") || r.Has("jump") {
		t.Error("old actions survived ReplaceAll")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "north" || names[1] != "south" {
		t.Errorf("Names() = %v, want [north south]", names)
	}
}

func TestLookupUnknown(t *testing.T) {
	r := New()
	_, err := r.Lookup("ghost")
	if err == nil {
		t.Fatal("Lookup of unknown name succeeded")
	}
	var unknown *ErrUnknownAction
	if !errors.As(err, &unknown) {
		t.Fatalf("error %v is not ErrUnknownAction", err)
	}
	if unknown.Name != "ghost" {
		t.Errorf("Name = %q, want ghost", unknown.Name)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r := New()
	r.Register(action("shoot"))

	snap := r.Snapshot()
	snap[0].Name = "mutated"

	if !r.Has("shoot") || r.Has("mutated") {
		t.Error("mutating a snapshot changed the registry")
	}
}

func TestClear(t *testing.T) {
	r := New()
	r.Register(action("shoot"), action("jump"))
	r.Clear()

	if r.Len() != 0 || len(r.Names()) != 0 {
		t.Errorf("Clear left %d actions", r.Len())
	}
}
