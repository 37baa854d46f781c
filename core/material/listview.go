package material

// ListView accumulates listing pages for incremental "load more" browsing.
// Appending never duplicates an already-shown material; refreshing reloads
// page 1 in place.
type ListView struct {
	Materials  []Material
	Pagination Pagination
	Stats      Stats

	seen map[string]bool
}

func NewListView() *ListView {
	return &ListView{seen: make(map[string]bool)}
}

// Refresh replaces the view with page 1 of a fresh result.
func (v *ListView) Refresh(res QueryResult) {
	v.Materials = nil
	v.seen = make(map[string]bool)
	v.apply(res)
}

// Append adds the next page to the view, skipping ids already shown.
func (v *ListView) Append(res QueryResult) {
	v.apply(res)
}

func (v *ListView) apply(res QueryResult) {
	if v.seen == nil {
		v.seen = make(map[string]bool)
	}
	for _, m := range res.Materials {
		if v.seen[m.ID] {
			continue
		}
		v.seen[m.ID] = true
		v.Materials = append(v.Materials, m)
	}
	v.Pagination = res.Pagination
	v.Stats = res.Stats
}

func (v *ListView) HasNext() bool {
	return v.Pagination.HasNext
}

func (v *ListView) Len() int {
	return len(v.Materials)
}
