package domain

// UpsertOutcome is the per-item outcome of a bulk write.
type UpsertOutcome struct {
	ID  string
	Err error
}

// BulkReport aggregates the per-item outcomes of one bulk write.
type BulkReport struct {
	Succeeded int
	Failed    int
	Outcomes  []UpsertOutcome
}

// FirstError returns the first per-item error, for log context.
func (r *BulkReport) FirstError() error {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
