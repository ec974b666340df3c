package dispatch

import "sort"

// resolve picks the unique most specific entry applicable to args.
// It returns *NoMatchError when nothing applies and *AmbiguousError when
// two or more entries tie at top specificity; ties are never broken by
// registration order.
func resolve(key Key, entries []*Entry, args []any) (*Entry, error) {
	type candidate struct {
		entry *Entry
		spec  specificity
	}

	var best []candidate
	for _, e := range entries {
		spec, ok := match(e, args)
		if !ok {
			continue
		}
		if len(best) == 0 {
			best = append(best, candidate{entry: e, spec: spec})
			continue
		}
		switch spec.compare(best[0].spec) {
		case 1:
			best = append(best[:0], candidate{entry: e, spec: spec})
		case 0:
			best = append(best, candidate{entry: e, spec: spec})
		}
	}

	switch len(best) {
	case 0:
		return nil, &NoMatchError{Key: key, ArgTypes: argTypeNames(args)}
	case 1:
		return best[0].entry, nil
	}

	tied := make([]TiedEntry, len(best))
	for i, c := range best {
		tied[i] = TiedEntry{Signature: c.entry.Signature(), Seq: c.entry.seq}
	}
	sort.Slice(tied, func(i, j int) bool { return tied[i].Seq < tied[j].Seq })
	return nil, &AmbiguousError{Key: key, Tied: tied}
}
