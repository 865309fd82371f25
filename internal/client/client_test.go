package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloudconsole/internal/model"
	"cloudconsole/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	s, err := server.NewServer(context.Background(), server.ServerConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})
	return New(ts.URL + "/")
}

func TestCreateCommitRemove(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.Create(ctx, model.KindBlock, model.NewDoc(map[string]any{"name": "edge"}))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())

	saved, err := c.Commit(ctx, model.KindBlock, created.With("name", "core"))
	require.NoError(t, err)
	assert.Equal(t, "core", saved.String("name"))

	got, err := c.Get(ctx, model.KindBlock, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "core", got.String("name"))

	require.NoError(t, c.Remove(ctx, model.KindBlock, created.ID()))
	_, err = c.Get(ctx, model.KindBlock, created.ID())
	assert.True(t, IsNotFound(err))
}

func TestValidationErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Create(context.Background(), model.KindOrganization, model.NewDoc(nil))
	require.Error(t, err)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "name_required", ae.Code)
	assert.Equal(t, "Missing required name", ae.Message)
}

func TestRemoveMultiAndList(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		d, err := c.Create(ctx, model.KindOrganization, model.NewDoc(map[string]any{"name": name}))
		require.NoError(t, err)
		ids = append(ids, d.ID())
	}

	removed, err := c.RemoveMulti(ctx, model.KindOrganization, []string{ids[0], ids[1]})
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[:2], removed)

	list, err := c.List(ctx, model.KindOrganization)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[2], list[0].ID())
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Create(ctx, model.KindOrganization, model.NewDoc(map[string]any{"name": "acme"}))
	require.NoError(t, err)

	all, err := c.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(model.Kinds))
	assert.Len(t, all[model.KindOrganization], 1)
	assert.Empty(t, all[model.KindInstance])
	assert.NotNil(t, all[model.KindBlock])
}

func TestSyncAllFailsWhenOneKindFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer ts.Close()

	_, err := New(ts.URL).SyncAll(context.Background())
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
}

func TestEvents(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Events(ctx)
	require.NoError(t, err)

	// The hub registers the subscriber after the upgrade; retry the write
	// until an event shows up.
	var ev model.ChangeEvent
	require.Eventually(t, func() bool {
		if _, err := c.Create(ctx, model.KindBlock, model.NewDoc(map[string]any{"name": "edge"})); err != nil {
			return false
		}
		select {
		case ev = <-events:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, model.EventCreated, ev.Type)
	assert.Equal(t, model.KindBlock, ev.Kind)

	cancel()
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 3*time.Second, 10*time.Millisecond)
}

func TestEventsURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:9700/events", New("http://127.0.0.1:9700").eventsURL())
	assert.Equal(t, "wss://cp.example/events", New("https://cp.example/").eventsURL())
}
