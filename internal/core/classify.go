package core

// Matches reports whether a header satisfies the group's signature.
func (d GroupDefinition) Matches(cols map[string]bool) bool {
	switch d.Match {
	case MatchAny:
		for _, c := range d.Signature {
			if cols[c] {
				return true
			}
		}
		return false
	default:
		for _, c := range d.Signature {
			if !cols[c] {
				return false
			}
		}
		return true
	}
}

// Classify returns the keys of every registered group whose signature the
// header satisfies, in processing order. Membership is not exclusive: a
// merged export carrying client and economics columns lands in both groups.
func Classify(columns []string) []string {
	return ClassifyWith(All(), columns)
}

// ClassifyWith is Classify against an explicit set of definitions.
func ClassifyWith(defs []GroupDefinition, columns []string) []string {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}

	var keys []string
	for _, def := range defs {
		if def.Matches(cols) {
			keys = append(keys, def.Info.Key)
		}
	}
	return keys
}
