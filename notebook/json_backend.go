package notebook

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/lib/guid"
	"github.com/simoninireland/epyc/resultset"
)

// JSONBackend persists a notebook as one portable JSON file.
// Values are written in their natural JSON shape (numbers, strings,
// booleans, arrays, and a {"re","im"} object for complex), alongside
// each set's field->kind schema, so Int and Float can be told apart on
// read even though JSON itself can't tell them apart from the number
// alone. A legacy version-1 file (a bare `results` list, no tagging) is
// accepted on read and migrated into the default-tagged set; this
// backend always writes version 2.
//
// Hand-built over encoding/json rather than refmt/atlas: the on-disk
// shape here is a small, fixed, human-readable object whose key layout
// is simpler to construct directly than to coerce through atlas's
// struct-mapping conventions. The
// worker-farm wire format and the columnar backend use refmt/atlas,
// where a schema-driven codec earns its keep.
type JSONBackend struct {
	Path string
	Name string
}

func NewJSONBackend(path, name string) *JSONBackend {
	return &JSONBackend{Path: path, Name: name}
}

type jsonRecord struct {
	Parameters map[string]interface{} `json:"parameters"`
	Results    map[string]interface{} `json:"results"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type jsonResultSet struct {
	Description string                `json:"description"`
	Locked      bool                  `json:"locked"`
	Attributes  map[string]string     `json:"attributes"`
	Schema      map[string]string     `json:"schema"`
	SchemaPend  map[string]string     `json:"schema_pending,omitempty"`
	Results     []jsonRecord          `json:"results"`
	Pending     map[string]jsonRecord `json:"pending"`
}

type jsonNotebook struct {
	Version     int                      `json:"version"`
	Description string                   `json:"description"`
	CurrentTag  string                   `json:"current_tag"`
	Attributes  map[string]string        `json:"attributes"`
	ResultSets  map[string]jsonResultSet `json:"result_sets"`
}

// legacy version-1 notebook: a single untagged results list.
type jsonNotebookV1 struct {
	Description string        `json:"description,omitempty"`
	Results     []jsonRecord  `json:"results"`
	Pending     []jsonRecord  `json:"pending,omitempty"`
}

func (b *JSONBackend) Load() (*Notebook, error) {
	data, err := os.ReadFile(b.Path)
	if os.IsNotExist(err) {
		return New(b.Name, ""), nil
	}
	if err != nil {
		return nil, err
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errs.Wrap(errs.NotebookVersion, err)
	}

	switch probe.Version {
	case 0:
		return b.loadV1(data)
	case FormatVersion:
		return b.loadV2(data)
	default:
		return nil, errs.New(errs.NotebookVersion, "unsupported notebook format version %d", probe.Version)
	}
}

func (b *JSONBackend) loadV1(data []byte) (*Notebook, error) {
	var v1 jsonNotebookV1
	if err := json.Unmarshal(data, &v1); err != nil {
		return nil, errs.Wrap(errs.NotebookVersion, err)
	}

	records, schema, err := recordsFromJSON(v1.Results, nil)
	if err != nil {
		return nil, err
	}
	pendingRecs, _, err := recordsFromJSON(v1.Pending, nil)
	if err != nil {
		return nil, err
	}
	pending := make([]def.PendingRecord, len(pendingRecs))
	for i, r := range pendingRecs {
		pending[i] = def.PendingRecord{P: r.P, JobID: guid.NewJobID()}
	}

	_ = schema // schema is re-inferred by Restore from the records themselves
	rs := resultset.Restore("migrated from version 1", false, map[string]string{}, records, pending)

	sets := map[string]*resultset.ResultSet{DefaultTag: rs}
	nb := restore(b.Name, v1.Description, map[string]string{}, []string{DefaultTag}, DefaultTag, sets, false)
	return nb, nil
}

func (b *JSONBackend) loadV2(data []byte) (*Notebook, error) {
	var doc jsonNotebook
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.NotebookVersion, err)
	}

	sets := make(map[string]*resultset.ResultSet, len(doc.ResultSets))
	tags := make([]string, 0, len(doc.ResultSets))
	for tag, jrs := range doc.ResultSets {
		tags = append(tags, tag)

		records, _, err := recordsFromJSON(jrs.Results, jrs.Schema)
		if err != nil {
			return nil, err
		}

		pending := make([]def.PendingRecord, 0, len(jrs.Pending))
		for jobID, jp := range jrs.Pending {
			p, err := parametersFromJSON(jp.Parameters, jrs.SchemaPend)
			if err != nil {
				return nil, err
			}
			pending = append(pending, def.PendingRecord{P: p, JobID: guid.JobID(jobID)})
		}

		sets[tag] = resultset.Restore(jrs.Description, jrs.Locked, jrs.Attributes, records, pending)
	}
	sortStringsInPlace(tags)

	current := doc.CurrentTag
	if _, ok := sets[current]; !ok {
		current = ""
		if len(tags) > 0 {
			current = tags[0]
		}
	}

	nb := restore(b.Name, doc.Description, doc.Attributes, tags, current, sets, false)
	return nb, nil
}

func (b *JSONBackend) Save(nb *Notebook) error {
	doc := jsonNotebook{
		Version:     FormatVersion,
		Description: nb.Description(),
		CurrentTag:  nb.CurrentTag(),
		Attributes:  nb.Attributes(),
		ResultSets:  make(map[string]jsonResultSet),
	}

	for _, tag := range nb.Tags() {
		rs, ok := nb.ResultSet(tag)
		if !ok {
			continue
		}

		schema := schemaToJSON(rs.SchemaReal())
		jrs := jsonResultSet{
			Description: rs.Description(),
			Locked:      rs.Locked(),
			Attributes:  rs.Attributes(),
			Schema:      schema,
			SchemaPend:  schemaToJSON(rs.SchemaPending()),
			Results:     recordsToJSON(rs.Records()),
			Pending:     make(map[string]jsonRecord),
		}
		for _, pr := range rs.Pending() {
			jrs.Pending[string(pr.JobID)] = jsonRecord{Parameters: valuesToJSON(pr.P)}
		}
		doc.ResultSets[tag] = jrs
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}

func schemaToJSON(s *def.Schema) map[string]string {
	out := make(map[string]string)
	for _, f := range s.Fields() {
		out[f.Name] = f.Kind.String()
	}
	return out
}

func valuesToJSON(m map[string]def.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = def.ToJSON(v)
	}
	return out
}

func recordsToJSON(recs []def.Record) []jsonRecord {
	out := make([]jsonRecord, len(recs))
	for i, rec := range recs {
		out[i] = jsonRecord{
			Parameters: valuesToJSON(rec.P),
			Results:    valuesToJSON(rec.R),
			Metadata:   valuesToJSON(rec.M),
		}
	}
	return out
}

// recordsFromJSON reconstructs records from their JSON form. When
// schema is nil, the kind of each field is inferred heuristically from
// its JSON shape (used for legacy version-1 files, which carry no
// schema); otherwise it is read directly from the schema map.
func recordsFromJSON(in []jsonRecord, schema map[string]string) ([]def.Record, map[string]def.Kind, error) {
	kinds := make(map[string]def.Kind)
	for name, k := range schema {
		kk, ok := kindFromString(k)
		if !ok {
			return nil, nil, errs.New(errs.NotebookVersion, "unknown field kind %q for %q", k, name)
		}
		kinds[name] = kk
	}

	out := make([]def.Record, len(in))
	for i, jr := range in {
		p, err := fieldsFromJSON(jr.Parameters, kinds)
		if err != nil {
			return nil, nil, err
		}
		r, err := fieldsFromJSON(jr.Results, kinds)
		if err != nil {
			return nil, nil, err
		}
		m, err := fieldsFromJSON(jr.Metadata, kinds)
		if err != nil {
			return nil, nil, err
		}
		out[i] = def.Record{P: def.Parameters(p), R: def.Results(r), M: def.Metadata(m)}
	}
	return out, kinds, nil
}

func parametersFromJSON(in map[string]interface{}, schema map[string]string) (def.Parameters, error) {
	kinds := make(map[string]def.Kind)
	for name, k := range schema {
		kk, ok := kindFromString(k)
		if !ok {
			return nil, errs.New(errs.NotebookVersion, "unknown field kind %q for %q", k, name)
		}
		kinds[name] = kk
	}
	out, err := fieldsFromJSON(in, kinds)
	if err != nil {
		return nil, err
	}
	return def.Parameters(out), nil
}

func fieldsFromJSON(in map[string]interface{}, kinds map[string]def.Kind) (map[string]def.Value, error) {
	out := make(map[string]def.Value, len(in))
	for name, raw := range in {
		kind, ok := kinds[name]
		if !ok {
			inferred, ok := inferKindFromJSONValue(raw)
			if !ok {
				return nil, fmt.Errorf("notebook: cannot infer kind for field %q", name)
			}
			kind = inferred
		}
		v, err := def.FromJSON(raw, kind)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// inferKindFromJSONValue heuristically recovers a Kind from a raw
// encoding/json-decoded value, for legacy version-1 files that carry no
// schema. JSON numbers decode as float64 regardless of whether the
// original value was an int or a float, so every bare number is taken
// as Float; this only matters for unschemaed legacy reads, since
// version-2 files always carry the schema that disambiguates.
func inferKindFromJSONValue(raw interface{}) (def.Kind, bool) {
	switch x := raw.(type) {
	case float64:
		return def.Float, true
	case bool:
		return def.Bool, true
	case string:
		return def.Text, true
	case map[string]interface{}:
		if _, ok := x["re"]; ok {
			return def.Complex, true
		}
		return def.Kind(0), false
	case []interface{}:
		if len(x) == 0 {
			return def.ArrayFloat, true
		}
		el, ok := inferKindFromJSONValue(x[0])
		if !ok {
			return def.Kind(0), false
		}
		return arrayKindFor(el), true
	default:
		return def.Kind(0), false
	}
}

func arrayKindFor(el def.Kind) def.Kind {
	switch el {
	case def.Float:
		return def.ArrayFloat
	case def.Bool:
		return def.ArrayBool
	case def.Text:
		return def.ArrayText
	case def.Complex:
		return def.ArrayComplex
	default:
		return def.ArrayFloat
	}
}

func kindFromString(s string) (def.Kind, bool) {
	for _, k := range []def.Kind{
		def.Int, def.Float, def.Complex, def.Bool, def.Text,
		def.ArrayInt, def.ArrayFloat, def.ArrayComplex, def.ArrayBool, def.ArrayText,
	} {
		if k.String() == s {
			return k, true
		}
	}
	return def.Kind(0), false
}

func sortStringsInPlace(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
