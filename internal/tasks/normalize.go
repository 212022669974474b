package tasks

// Normalize turns any payload into the canonical task list. The flat shape is
// returned as is; the split shape is merged (mine first, then team) and
// de-duplicated. The result is never nil.
func Normalize(p Payload) []Task {
	switch p := p.(type) {
	case FlatPayload:
		if p.Tasks == nil {
			return []Task{}
		}
		return p.Tasks
	case SplitPayload:
		return Dedupe(p.Merged())
	default:
		return []Task{}
	}
}

// NormalizeJSON is Normalize(ParsePayload(body)).
func NormalizeJSON(body []byte) []Task {
	return Normalize(ParsePayload(body))
}

// Dedupe keeps the first record for each identifier, preserving order.
// Records without an identifier are always kept.
func Dedupe(list []Task) []Task {
	seen := make(map[TaskID]struct{}, len(list))
	out := make([]Task, 0, len(list))
	for _, t := range list {
		id, ok := t.ID()
		if !ok {
			out = append(out, t)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, t)
	}
	return out
}
