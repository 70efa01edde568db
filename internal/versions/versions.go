// Package versions groups scenes and clips into alternate-take families and
// selects the single active member of each family. This is the only place
// that decides what "the" scene or clip is when several versions exist, so
// the selection must be deterministic for a given input order.
package versions

// Versioned is implemented by anything that can be an alternate take of
// something else. Scenes and clips in the timeline package satisfy it.
type Versioned interface {
	// FamilyKey resolves the root identity of the item's family: the
	// parent id when the item is an alternate, the item's own id otherwise.
	FamilyKey() string
	// Alternate reports whether the item is an alternate take.
	Alternate() bool
}

// Family is one group of items sharing a parent identity. Members keep
// their input order; a family is never empty.
type Family[T Versioned] struct {
	Key     string
	Members []T
}

// GroupByParent partitions items into families. Family order follows first
// appearance in the input, member order follows input order. An item with
// no parent roots its own family, which later items may join by referencing
// its id.
func GroupByParent[T Versioned](items []T) []Family[T] {
	index := make(map[string]int, len(items))
	families := make([]Family[T], 0, len(items))

	for _, item := range items {
		key := item.FamilyKey()
		i, ok := index[key]
		if !ok {
			i = len(families)
			index[key] = i
			families = append(families, Family[T]{Key: key})
		}
		families[i].Members = append(families[i].Members, item)
	}
	return families
}

// ActiveOf selects the family member treated as canonical for duration and
// rendering: the first non-alternate, or the first member when every member
// is an alternate. Two non-alternates in one family is a data inconsistency;
// the first one encountered wins, which is intentional tie-breaking rather
// than an error.
func ActiveOf[T Versioned](f Family[T]) T {
	for _, m := range f.Members {
		if !m.Alternate() {
			return m
		}
	}
	return f.Members[0]
}

// Actives returns the active member of every family, in family order.
func Actives[T Versioned](items []T) []T {
	families := GroupByParent(items)
	out := make([]T, 0, len(families))
	for _, f := range families {
		out = append(out, ActiveOf(f))
	}
	return out
}
