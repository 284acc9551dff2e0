package dataset

// Source yields the records consumed by an ingest run, one at a time.
// Next returns the next record and true, or a zero record and false once
// the source is exhausted.
type Source interface {
	Next() (interface{}, bool)
}

// Sized is implemented by sources that know their record count up front.
// Ingest runs use it for progress logging only; sources that cannot count
// cheaply simply omit it.
type Sized interface {
	Len() int
}

// SliceSource iterates an in-memory slice of records.
type SliceSource struct {
	records []interface{}
	pos     int
}

var (
	_ Source = (*SliceSource)(nil)
	_ Sized  = (*SliceSource)(nil)
)

// NewSliceSource returns a source over the given records.
func NewSliceSource(records []interface{}) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements Source.
func (s *SliceSource) Next() (interface{}, bool) {
	if s.pos >= len(s.records) {
		return nil, false
	}
	record := s.records[s.pos]
	s.pos++
	return record, true
}

// Len implements Sized.
func (s *SliceSource) Len() int { return len(s.records) }
