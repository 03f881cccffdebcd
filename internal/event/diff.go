package event

// DiffResult contains the results of comparing two event collections
type DiffResult struct {
	Added   []Event `json:"added"`
	Removed []Event `json:"removed"`
}

// Changed reports whether any event was added or removed.
func (d *DiffResult) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Dedupe keeps the first event for each identity key, preserving order.
func Dedupe(events []Event) []Event {
	seen := make(map[Key]bool, len(events))
	unique := make([]Event, 0, len(events))
	for _, evt := range events {
		key := evt.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, evt)
	}
	return unique
}

// Reconcile compares current events against a previous snapshot. Added holds
// the current events whose key is absent from previous, Removed the previous
// events whose key is absent from current. A nil previous collection counts
// as empty. Each side keeps the first event per key in input order.
//
// Events that differ only in description or URL are considered unchanged.
func Reconcile(current, previous []Event) *DiffResult {
	result := &DiffResult{
		Added:   make([]Event, 0),
		Removed: make([]Event, 0),
	}

	currentKeys := keySet(current)
	previousKeys := keySet(previous)

	for _, evt := range Dedupe(current) {
		if !previousKeys[evt.Key()] {
			result.Added = append(result.Added, evt)
		}
	}
	for _, evt := range Dedupe(previous) {
		if !currentKeys[evt.Key()] {
			result.Removed = append(result.Removed, evt)
		}
	}

	return result
}

func keySet(events []Event) map[Key]bool {
	keys := make(map[Key]bool, len(events))
	for _, evt := range events {
		keys[evt.Key()] = true
	}
	return keys
}
