package sample

// Document returns a flat, store-ready view of the sample: the built-in
// attributes plus every dynamic field, keyed by field name. Dynamic field
// values are shared with the sample, not copied.
func (s *Sample) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"filepath": s.filepath,
		"tags":     s.tags,
	}
	if s.metadata != nil {
		doc["metadata"] = s.metadata
	}
	for _, name := range s.order {
		doc[name] = s.fields[name]
	}
	return doc
}

// SetStaged writes a field value directly into the sample's field map,
// bypassing schema validation. Reserved for store implementations
// rehydrating persisted samples.
func (s *Sample) SetStaged(name string, value interface{}) {
	s.write(name, value)
}
