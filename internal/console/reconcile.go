package console

// Identified is anything carrying a stable, server-assigned id.
type Identified interface {
	EntityID() string
}

// Reconcile recomputes selection and expansion against a freshly observed list.
// Ids that are no longer present are dropped silently; ids still present keep
// their state regardless of where they moved in the list.
//
// Duplicate ids in list are not collapsed here. The transport guarantees uniqueness.
func Reconcile[E Identified](list []E, selected, expanded IDSet) (IDSet, IDSet) {
	sel := IDSet{}
	exp := IDSet{}
	for _, e := range list {
		id := e.EntityID()
		if selected.Has(id) {
			sel[id] = struct{}{}
		}
		if expanded.Has(id) {
			exp[id] = struct{}{}
		}
	}
	return sel, exp
}
