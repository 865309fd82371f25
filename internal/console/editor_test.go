package console

import (
	"errors"
	"reflect"
	"testing"

	"cloudconsole/internal/model"
)

var errFailed = errors.New("request failed")

func blockDoc() model.Doc {
	return model.NewDoc(map[string]any{"id": "1", "name": "old"})
}

func mustBegin(t *testing.T) func(Pending, bool) Pending {
	t.Helper()
	return func(p Pending, ok bool) Pending {
		t.Helper()
		if !ok {
			t.Fatalf("expected operation to start")
		}
		return p
	}
}

func TestEditor_SetFieldCreatesBufferFromCanonical(t *testing.T) {
	canonical := blockDoc()
	e := NewEditor(canonical)
	if e.State() != StateClean {
		t.Fatalf("expected clean editor; got %s", e.State())
	}

	e.SetField("name", "x")

	buf, ok := e.Buffer()
	if !ok {
		t.Fatalf("expected a buffer after SetField")
	}
	if buf.String("name") != "x" || buf.ID() != "1" {
		t.Fatalf("unexpected buffer: name=%q id=%q", buf.String("name"), buf.ID())
	}
	if e.Canonical().String("name") != "old" || canonical.String("name") != "old" {
		t.Fatalf("canonical must not change")
	}
	if !e.Dirty() || e.State() != StateDirty {
		t.Fatalf("expected dirty; got dirty=%v state=%s", e.Dirty(), e.State())
	}
}

func TestEditor_CopyOnWriteKeepsOldSnapshots(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "first")
	snap := e.Doc()
	e.SetField("name", "second")

	if got := snap.String("name"); got != "first" {
		t.Fatalf("snapshot changed to %q", got)
	}
	if got := e.Doc().String("name"); got != "second" {
		t.Fatalf("doc name = %q, want second", got)
	}
}

func TestEditor_AddListItemSortsAndDedupes(t *testing.T) {
	e := NewEditor(blockDoc())
	e.AddListItem("addresses", "10.0.0.5")
	e.AddListItem("addresses", "10.0.0.1")
	want := []string{"10.0.0.1", "10.0.0.5"}
	if got := e.Doc().Strings("addresses"); !reflect.DeepEqual(got, want) {
		t.Fatalf("addresses = %v, want %v", got, want)
	}

	e.AddListItem("addresses", "10.0.0.5")
	if got := e.Doc().Strings("addresses"); !reflect.DeepEqual(got, want) {
		t.Fatalf("duplicate add: addresses = %v, want %v", got, want)
	}
}

func TestEditor_AddEmptyValueIsNoop(t *testing.T) {
	e := NewEditor(blockDoc())
	e.AddListItem("addresses", "")
	if _, ok := e.Buffer(); ok || e.Dirty() {
		t.Fatalf("empty value must not create a buffer")
	}
}

func TestEditor_RemoveListItem(t *testing.T) {
	canonical := model.NewDoc(map[string]any{
		"id":        "1",
		"addresses": []string{"10.0.0.3", "10.0.0.1", "10.0.0.2", "10.0.0.1"},
	})
	e := NewEditor(canonical)

	if e.RemoveListItem("addresses", "10.0.0.9") {
		t.Fatalf("removing a missing value reported true")
	}
	if _, ok := e.Buffer(); ok {
		t.Fatalf("no buffer expected for a missing value")
	}

	if !e.RemoveListItem("addresses", "10.0.0.1") {
		t.Fatalf("expected removal")
	}
	want := []string{"10.0.0.3", "10.0.0.2", "10.0.0.1"}
	if got := e.Doc().Strings("addresses"); !reflect.DeepEqual(got, want) {
		t.Fatalf("addresses = %v, want %v", got, want)
	}
	if n := len(canonical.Strings("addresses")); n != 4 {
		t.Fatalf("canonical changed: %d addresses", n)
	}
}

func TestEditor_CommitSuccessThenExpire(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")

	p := mustBegin(t)(e.BeginCommit())
	if p.Payload.String("name") != "new" {
		t.Fatalf("payload name = %q", p.Payload.String("name"))
	}
	if !e.Disabled() || e.State() != StateSaving {
		t.Fatalf("expected saving; got disabled=%v state=%s", e.Disabled(), e.State())
	}
	if _, ok := e.BeginCommit(); ok {
		t.Fatalf("second commit while saving must be refused")
	}

	if !e.Complete(p, nil) {
		t.Fatalf("success must schedule expiry")
	}
	if e.Disabled() || e.Dirty() || e.Message() != MessageSaved {
		t.Fatalf("after success: disabled=%v dirty=%v message=%q", e.Disabled(), e.Dirty(), e.Message())
	}
	if _, ok := e.Buffer(); !ok {
		t.Fatalf("buffer must be kept until the message expires")
	}

	e.Expire(p)
	if e.Message() != "" {
		t.Fatalf("message not cleared: %q", e.Message())
	}
	if _, ok := e.Buffer(); ok {
		t.Fatalf("buffer not cleared on expiry")
	}
	if e.State() != StateClean {
		t.Fatalf("state = %s, want clean", e.State())
	}
}

func TestEditor_ExpireKeepsNewerEdit(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")
	p := mustBegin(t)(e.BeginCommit())
	if !e.Complete(p, nil) {
		t.Fatalf("expected expiry to be scheduled")
	}

	e.SetField("name", "newer")
	e.Expire(p)

	if !e.Dirty() || e.Doc().String("name") != "newer" || e.Message() != "" {
		t.Fatalf("after expiry: dirty=%v name=%q message=%q", e.Dirty(), e.Doc().String("name"), e.Message())
	}
}

func TestEditor_EditDuringSaveSurvivesExpiry(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "a")
	p := mustBegin(t)(e.BeginCommit())
	e.SetField("name", "b")

	if p.Payload.String("name") != "a" {
		t.Fatalf("payload name = %q, want a", p.Payload.String("name"))
	}

	if !e.Complete(p, nil) {
		t.Fatalf("expected expiry to be scheduled")
	}
	if !e.Dirty() || e.State() != StateDirty {
		t.Fatalf("edit made while saving must stay dirty; dirty=%v state=%s", e.Dirty(), e.State())
	}
	if e.Message() != MessageSaved {
		t.Fatalf("message = %q", e.Message())
	}

	e.Expire(p)
	if got := e.Doc().String("name"); got != "b" {
		t.Fatalf("unsent edit lost: name = %q", got)
	}
	if _, ok := e.Buffer(); !ok || !e.Dirty() {
		t.Fatalf("buffer must survive expiry")
	}

	// Saving again sends the kept edit and cleans the editor.
	p2 := mustBegin(t)(e.BeginCommit())
	if p2.Payload.String("name") != "b" {
		t.Fatalf("second payload name = %q", p2.Payload.String("name"))
	}
	e.Complete(p2, nil)
	if e.Dirty() {
		t.Fatalf("expected clean after second save")
	}
}

func TestEditor_CommitFailureKeepsBuffer(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")
	p := mustBegin(t)(e.BeginCommit())

	if e.Complete(p, errFailed) {
		t.Fatalf("failure must not schedule expiry")
	}
	if e.Disabled() || !e.Dirty() || e.Message() != "" {
		t.Fatalf("after failure: disabled=%v dirty=%v message=%q", e.Disabled(), e.Dirty(), e.Message())
	}
	if e.Doc().String("name") != "new" || e.State() != StateDirty {
		t.Fatalf("buffer lost: name=%q state=%s", e.Doc().String("name"), e.State())
	}
}

func TestEditor_Cancel(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")
	e.Cancel()

	if _, ok := e.Buffer(); ok || e.Dirty() {
		t.Fatalf("cancel must drop the buffer")
	}
	if e.Doc().String("name") != "old" {
		t.Fatalf("doc name = %q, want old", e.Doc().String("name"))
	}
}

func TestEditor_SyncSendsCanonical(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "local")

	p := mustBegin(t)(e.BeginSync())
	if p.Payload.String("name") != "old" {
		t.Fatalf("sync payload name = %q, want old", p.Payload.String("name"))
	}

	if !e.Complete(p, nil) {
		t.Fatalf("sync success must schedule expiry")
	}
	if e.Message() != MessageSyncStarted {
		t.Fatalf("message = %q", e.Message())
	}
	if !e.Dirty() {
		t.Fatalf("sync leaves local edits alone")
	}
}

func TestEditor_RemoveReenablesOnBothOutcomes(t *testing.T) {
	for _, err := range []error{nil, errFailed} {
		e := NewEditor(blockDoc())
		p := mustBegin(t)(e.BeginRemove())
		if p.ID != "1" || !p.Removes() || !e.Disabled() {
			t.Fatalf("unexpected remove token: %+v disabled=%v", p, e.Disabled())
		}
		if e.Complete(p, err) {
			t.Fatalf("remove must not schedule expiry")
		}
		if e.Disabled() {
			t.Fatalf("remove (err=%v) left the editor disabled", err)
		}
	}
}

func TestEditor_CompletionAfterCloseIsNoop(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")
	p := mustBegin(t)(e.BeginCommit())
	e.Close()

	if e.Complete(p, nil) {
		t.Fatalf("completion after close scheduled expiry")
	}
	if !e.Disabled() || !e.Dirty() || e.Message() != "" {
		t.Fatalf("closed editor changed: disabled=%v dirty=%v message=%q", e.Disabled(), e.Dirty(), e.Message())
	}

	e.Expire(p)
	e.SetField("name", "ignored")
	if e.Doc().String("name") != "new" {
		t.Fatalf("closed editor accepted an edit")
	}
}

func TestEditor_StaleCompletionIgnored(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "new")
	p1 := mustBegin(t)(e.BeginCommit())
	if e.Complete(p1, errFailed) {
		t.Fatalf("failure scheduled expiry")
	}
	p2 := mustBegin(t)(e.BeginCommit())

	if e.Complete(p1, nil) {
		t.Fatalf("old token completed")
	}
	if !e.Disabled() {
		t.Fatalf("old token re-enabled the editor")
	}
	if !e.Complete(p2, nil) {
		t.Fatalf("current token must complete")
	}
}

func TestEditor_RefreshKeepsBuffer(t *testing.T) {
	e := NewEditor(blockDoc())
	e.SetField("name", "local")
	e.Refresh(model.NewDoc(map[string]any{"id": "1", "name": "server"}))

	if e.Doc().String("name") != "local" || e.Canonical().String("name") != "server" {
		t.Fatalf("doc=%q canonical=%q", e.Doc().String("name"), e.Canonical().String("name"))
	}

	e.Cancel()
	if e.Doc().String("name") != "server" {
		t.Fatalf("cancel must fall back to the refreshed canonical")
	}
}
