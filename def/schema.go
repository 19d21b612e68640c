package def

// Field names one column of a result set's inferred schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered vector of (name, kind) pairs a result set infers
// from the records appended to it: schema_real is P∪R∪M with inferred
// types, schema_pending is P alone.
//
// Field order is append order (first-seen), which keeps persisted output
// stable across writes even though the underlying storage is a map.
type Schema struct {
	order  []string
	fields map[string]Kind
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Kind)}
}

// Fields returns the schema's columns in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.order))
	for i, name := range s.order {
		out[i] = Field{Name: name, Kind: s.fields[name]}
	}
	return out
}

// Names returns just the field names, in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Kind returns the kind of field name and whether it exists.
func (s *Schema) Kind(name string) (Kind, bool) {
	k, ok := s.fields[name]
	return k, ok
}

// Observe folds an observed value's kind into the schema, adding the
// field if new or widening it (per Widen) if not. It reports whether the
// widening required promoting a kind that was already in use.
func (s *Schema) Observe(name string, k Kind) (widened bool) {
	existing, ok := s.fields[name]
	if !ok {
		s.order = append(s.order, name)
		s.fields[name] = k
		return false
	}
	merged := Widen(existing, k)
	if merged != existing {
		s.fields[name] = merged
		return true
	}
	return false
}

// Clone returns an independent copy of the schema.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		order:  append([]string(nil), s.order...),
		fields: make(map[string]Kind, len(s.fields)),
	}
	for k, v := range s.fields {
		out.fields[k] = v
	}
	return out
}

// Backfill returns rec's map extended with the schema's zero value for
// every field present in the schema but absent from the map, and with
// every present value coerced up to the field's (possibly since-widened)
// kind. It is used to present logically-backfilled, promoted records on
// retrieval without mutating the stored record.
func (s *Schema) Backfill(values map[string]Value) map[string]Value {
	out := make(map[string]Value, len(s.fields))
	for name, kind := range s.fields {
		if v, ok := values[name]; ok {
			out[name] = Coerce(v, kind)
		} else {
			out[name] = Zero(kind)
		}
	}
	return out
}
