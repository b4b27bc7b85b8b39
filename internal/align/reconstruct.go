package align

// Reconstruct rebuilds the ordered item-set sequence for one grouping key
// from its positioned sub-record rows. Main rows must already be filtered out
// by the caller.
//
// Every position from 0 through the highest position present gets exactly one
// item set; positions with no row of a given kind get a nil marker for that
// kind. A slot is filled only by a row at that exact position, never by a
// neighbor, so a gap stays a gap instead of borrowing later data. When no
// rows exist at all a single all-empty set at position 0 is synthesized so
// the grouping key always renders.
func Reconstruct(groupingKey string, records []SubRecord) ([]ItemSet, error) {
	maxPosition := 0
	byPosition := make(map[int]*ItemSet)
	for i := range records {
		rec := records[i]
		if rec.Position < 0 {
			rec.Position = 0
		}
		if rec.Position > maxPosition {
			maxPosition = rec.Position
		}
		set, ok := byPosition[rec.Position]
		if !ok {
			set = &ItemSet{Position: rec.Position}
			byPosition[rec.Position] = set
		}
		if existing := set.get(rec.Kind); existing != nil {
			return nil, &InconsistencyError{
				GroupingKey: groupingKey,
				Position:    rec.Position,
				Kind:        rec.Kind,
				RowIDs:      []string{existing.RowID, rec.RowID},
			}
		}
		set.set(rec.Kind, &rec)
	}

	sets := make([]ItemSet, maxPosition+1)
	for position := 0; position <= maxPosition; position++ {
		if set, ok := byPosition[position]; ok {
			sets[position] = *set
		} else {
			sets[position] = ItemSet{Position: position}
		}
	}
	return sets, nil
}
