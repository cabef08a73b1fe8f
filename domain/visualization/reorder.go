package visualization

// ReorderBarSeries re-expresses bar series in vocabulary order.
//
// With an x vocabulary every series gets exactly the vocabulary as labels; a category the
// series lacks is nil, and a series label outside the vocabulary is dropped. With an overlay
// vocabulary the series themselves follow that order, and overlay values with no series get
// an all-nil placeholder so every value still appears in the legend.
func ReorderBarSeries(series []Series, xVocabulary, overlayVocabulary []string) []Series {
	out := make([]Series, len(series))
	for i, s := range series {
		if len(xVocabulary) > 0 {
			out[i] = reorderLabels(s, xVocabulary)
		} else {
			out[i] = copySeries(s)
		}
	}

	if len(overlayVocabulary) == 0 {
		return out
	}

	placeholderLabels := xVocabulary
	if len(placeholderLabels) == 0 && len(out) > 0 {
		placeholderLabels = out[0].Labels
	}
	return OrderByOverlay(out, func(s Series) string { return s.Name }, overlayVocabulary, func(name string) Series {
		return Series{
			Name:   name,
			Labels: append([]string(nil), placeholderLabels...),
			Values: make([]*float64, len(placeholderLabels)),
		}
	})
}

// DroppedLabels lists the series labels that ReorderBarSeries would discard for lack of a
// vocabulary entry.
func DroppedLabels(series []Series, xVocabulary []string) []string {
	if len(xVocabulary) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(xVocabulary))
	for _, v := range xVocabulary {
		known[v] = struct{}{}
	}
	var dropped []string
	seen := make(map[string]struct{})
	for _, s := range series {
		for _, label := range s.Labels {
			if _, ok := known[label]; ok {
				continue
			}
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			dropped = append(dropped, label)
		}
	}
	return dropped
}

// OrderByOverlay orders series to match an overlay vocabulary, synthesizing a placeholder for
// each vocabulary entry that has no series. Series whose name is not in the vocabulary are dropped.
func OrderByOverlay[S any](series []S, name func(S) string, overlayVocabulary []string, placeholder func(name string) S) []S {
	byName := make(map[string]S, len(series))
	for _, s := range series {
		n := name(s)
		if _, exists := byName[n]; !exists {
			byName[n] = s
		}
	}
	out := make([]S, 0, len(overlayVocabulary))
	for _, v := range overlayVocabulary {
		if s, ok := byName[v]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, placeholder(v))
	}
	return out
}

func reorderLabels(s Series, vocabulary []string) Series {
	position := make(map[string]int, len(s.Labels))
	for i, label := range s.Labels {
		if _, exists := position[label]; !exists {
			position[label] = i
		}
	}
	out := Series{
		Name:    s.Name,
		Labels:  append([]string(nil), vocabulary...),
		Values:  make([]*float64, len(vocabulary)),
		Color:   s.Color,
		Missing: s.Missing,
	}
	for i, v := range vocabulary {
		if j, ok := position[v]; ok && j < len(s.Values) && s.Values[j] != nil {
			value := *s.Values[j]
			out.Values[i] = &value
		}
	}
	return out
}

func copySeries(s Series) Series {
	out := s
	out.Labels = append([]string(nil), s.Labels...)
	out.Values = make([]*float64, len(s.Values))
	for i, v := range s.Values {
		if v != nil {
			value := *v
			out.Values[i] = &value
		}
	}
	return out
}
