package cache

import (
	"testing"

	"cloudconsole/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id, name string) model.Doc {
	return model.NewDoc(map[string]any{"id": id, "name": name})
}

func TestCollection_ReplaceNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	c := NewCollection[model.Doc]()
	require.False(t, c.Loaded())

	calls := 0
	unsub := c.Subscribe(func() { calls++ })

	c.Replace([]model.Doc{doc("a", "A"), doc("b", "B")})
	assert.Equal(t, 1, calls)
	assert.True(t, c.Loaded())
	assert.Equal(t, uint64(1), c.Version())
	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B", got.String("name"))

	unsub()
	unsub()
	assert.Equal(t, 0, c.Subscribers())

	c.Replace(nil)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c.Len())
}

func TestCollection_ListIsCopy(t *testing.T) {
	t.Parallel()

	c := NewCollection[model.Doc]()
	in := []model.Doc{doc("a", "A")}
	c.Replace(in)
	in[0] = doc("z", "Z")

	out := c.List()
	out[0] = doc("y", "Y")
	assert.Equal(t, "a", c.List()[0].ID())
}

func TestRegistry_SubscribeAllAndLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var seen []model.Kind
	unsub := r.SubscribeAll(func(k model.Kind) { seen = append(seen, k) }, model.KindInstance, model.KindOrganization)

	r.Collection(model.KindOrganization).Replace([]model.Doc{doc("org-a", "Acme")})
	r.Collection(model.KindBlock).Replace(nil)
	r.Collection(model.KindInstance).Replace(nil)
	assert.Equal(t, []model.Kind{model.KindOrganization, model.KindInstance}, seen)

	assert.Equal(t, "Acme", r.Lookup(model.KindOrganization, "org-a"))
	assert.Equal(t, "", r.Lookup(model.KindOrganization, "org-missing"))

	unsub()
	r.Collection(model.KindInstance).Replace(nil)
	assert.Len(t, seen, 2)
}
