package attendance

// Reconcile merges the live and archive record sets for a student into one
// deduplicated list. Submission copies every record into the archive table,
// so the same (date, period) pair routinely appears in both sets; the first
// occurrence wins and live rows are consulted first. Rows whose joined
// period or instructor metadata is missing are dropped as orphaned.
//
// The result is a pure function of its input: reconciling an already
// reconciled set is a no-op.
func Reconcile(live, archive []JoinedRecord) []JoinedRecord {
	seen := make(map[string]struct{}, len(live)+len(archive))
	out := make([]JoinedRecord, 0, len(live)+len(archive))

	keep := func(recs []JoinedRecord) {
		for _, r := range recs {
			if r.Period.ID == "" || r.Faculty.ID == "" {
				continue
			}
			key := r.Date + "|" + r.Period.ID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	keep(live)
	keep(archive)
	return out
}
