package notebook

import (
	"os"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/cbor"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/lib/guid"
	"github.com/simoninireland/epyc/resultset"
)

// ColumnarBackend persists a notebook as one CBOR-encoded container
// modelled on HDF5's group/attribute/dataset shape: a root
// group of notebook-level attributes, one child group per tag holding
// its own attributes plus a two-dimensional "results" dataset (one row
// per record, one column per P∪R∪M field) and, only when non-empty, a
// "pending" dataset.
//
// Grounded on refmt/cbor, the same wire codec the source's `h5py`-style
// columnar notebook and the worker-farm transport both lean on; the
// container is genuinely column-major (one typed slice per field, not
// one blob per record) even though it is not a literal HDF5 file — no
// pure-Go, cgo-free HDF5 binding exists in this codebase's dependency
// corpus, so the group/attribute/dataset *shape* is what's reproduced.
type ColumnarBackend struct {
	Path string
	Name string
}

func NewColumnarBackend(path, name string) *ColumnarBackend {
	return &ColumnarBackend{Path: path, Name: name}
}

// column is one typed dataset column: Data holds one entry per row in
// its natural JSON-ish shape (via def.ToJSON), which for an array-kinded
// field is itself a slice, per row.
type column struct {
	Kind string        `json:"kind"`
	Data []interface{} `json:"data"`
}

type table struct {
	Rows    int                `json:"rows"`
	Columns map[string]column  `json:"columns"`
	Order   []string           `json:"order"`
}

type columnarGroup struct {
	Description    string            `json:"description"`
	Locked         bool              `json:"locked"`
	ParameterNames []string          `json:"parameter_names"`
	ResultNames    []string          `json:"result_names"`
	MetadataNames  []string          `json:"metadata_names"`
	Attributes     map[string]string `json:"attributes"`
	Results        table             `json:"results"`
	HasPending     bool              `json:"has_pending"`
	Pending        table             `json:"pending"`
}

type columnarDoc struct {
	Version     int                      `json:"version"`
	Description string                   `json:"description"`
	CurrentTag  string                   `json:"current_tag"`
	Attributes  map[string]string        `json:"attributes"`
	Groups      map[string]columnarGroup `json:"groups"`
}

func (b *ColumnarBackend) Load() (*Notebook, error) {
	data, err := os.ReadFile(b.Path)
	if os.IsNotExist(err) {
		return New(b.Name, ""), nil
	}
	if err != nil {
		return nil, err
	}

	var doc columnarDoc
	if err := refmt.Unmarshal(cbor.DecodeOptions{}, data, &doc); err != nil {
		return nil, errs.Wrap(errs.NotebookVersion, err)
	}
	if doc.Version != FormatVersion {
		return nil, errs.New(errs.NotebookVersion, "unsupported columnar notebook format version %d", doc.Version)
	}

	sets := make(map[string]*resultset.ResultSet, len(doc.Groups))
	tags := make([]string, 0, len(doc.Groups))
	for tag, g := range doc.Groups {
		tags = append(tags, tag)

		records, err := recordsFromTable(g.Results, g.ParameterNames, g.ResultNames, g.MetadataNames)
		if err != nil {
			return nil, err
		}

		var pending []def.PendingRecord
		if g.HasPending {
			pending, err = pendingFromTable(g.Pending)
			if err != nil {
				return nil, err
			}
		}

		sets[tag] = resultset.Restore(g.Description, g.Locked, g.Attributes, records, pending)
	}
	sortStringsInPlace(tags)

	current := doc.CurrentTag
	if _, ok := sets[current]; !ok && len(tags) > 0 {
		current = tags[0]
	}

	return restore(b.Name, doc.Description, doc.Attributes, tags, current, sets, false), nil
}

func (b *ColumnarBackend) Save(nb *Notebook) error {
	doc := columnarDoc{
		Version:     FormatVersion,
		Description: nb.Description(),
		CurrentTag:  nb.CurrentTag(),
		Attributes:  nb.Attributes(),
		Groups:      make(map[string]columnarGroup),
	}

	for _, tag := range nb.Tags() {
		rs, ok := nb.ResultSet(tag)
		if !ok {
			continue
		}

		records := rs.Records()
		pNames, rNames, mNames := collectFieldNames(records)

		resultsTable, err := buildTable(records, rs.SchemaReal())
		if err != nil {
			return err
		}

		g := columnarGroup{
			Description:    rs.Description(),
			Locked:         rs.Locked(),
			ParameterNames: pNames,
			ResultNames:    rNames,
			MetadataNames:  mNames,
			Attributes:     rs.Attributes(),
			Results:        resultsTable,
		}

		pending := rs.Pending()
		if len(pending) > 0 {
			pendingTable, err := buildPendingTable(pending, rs.SchemaPending())
			if err != nil {
				return err
			}
			g.HasPending = true
			g.Pending = pendingTable
		}

		doc.Groups[tag] = g
	}

	data, err := refmt.Marshal(cbor.EncodeOptions{}, doc)
	if err != nil {
		return err
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}

func collectFieldNames(records []def.Record) (p, r, m []string) {
	if len(records) == 0 {
		return nil, nil, nil
	}
	first := records[0]
	for name := range first.P {
		p = append(p, name)
	}
	for name := range first.R {
		r = append(r, name)
	}
	for name := range first.M {
		m = append(m, name)
	}
	sortStringsInPlace(p)
	sortStringsInPlace(r)
	sortStringsInPlace(m)
	return
}

// buildTable lays out records column-major, one column per schema
// field. Array-kinded fields must have identical length across every
// row; a mismatch is rejected as errs.ResultsStructure.
func buildTable(records []def.Record, schema *def.Schema) (table, error) {
	fields := schema.Fields()
	t := table{Rows: len(records), Columns: make(map[string]column, len(fields))}
	for _, f := range fields {
		data := make([]interface{}, len(records))
		width := -1
		for i, rec := range records {
			v, ok := rec.P[f.Name]
			if !ok {
				v, ok = rec.R[f.Name]
			}
			if !ok {
				v, ok = rec.M[f.Name]
			}
			if !ok {
				v = def.Zero(f.Kind)
			}
			if f.Kind.IsArray() {
				if width == -1 {
					width = v.Len()
				} else if v.Len() != width {
					return table{}, errs.New(errs.ResultsStructure,
						"field %q has ragged array shape (%d vs %d) across rows; columnar storage requires a uniform width", f.Name, v.Len(), width)
				}
			}
			data[i] = def.ToJSON(v)
		}
		t.Columns[f.Name] = column{Kind: f.Kind.String(), Data: data}
		t.Order = append(t.Order, f.Name)
	}
	return t, nil
}

func buildPendingTable(pending []def.PendingRecord, schema *def.Schema) (table, error) {
	fields := schema.Fields()
	t := table{Rows: len(pending), Columns: make(map[string]column, len(fields)+1)}
	for _, f := range fields {
		data := make([]interface{}, len(pending))
		for i, pr := range pending {
			filled := schema.Backfill(pr.P)
			data[i] = def.ToJSON(filled[f.Name])
		}
		t.Columns[f.Name] = column{Kind: f.Kind.String(), Data: data}
		t.Order = append(t.Order, f.Name)
	}
	jobIDs := make([]interface{}, len(pending))
	for i, pr := range pending {
		jobIDs[i] = string(pr.JobID)
	}
	t.Columns["job_id"] = column{Kind: def.Text.String(), Data: jobIDs}
	t.Order = append(t.Order, "job_id")
	return t, nil
}

func recordsFromTable(t table, pNames, rNames, mNames []string) ([]def.Record, error) {
	inCat := func(names []string, name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}

	out := make([]def.Record, t.Rows)
	for i := range out {
		out[i] = def.Record{P: def.Parameters{}, R: def.Results{}, M: def.Metadata{}}
	}

	for name, col := range t.Columns {
		kind, ok := kindFromString(col.Kind)
		if !ok {
			return nil, errs.New(errs.NotebookVersion, "unknown column kind %q for %q", col.Kind, name)
		}
		for i, raw := range col.Data {
			v, err := def.FromJSON(raw, kind)
			if err != nil {
				return nil, err
			}
			switch {
			case inCat(pNames, name):
				out[i].P[name] = v
			case inCat(rNames, name):
				out[i].R[name] = v
			default:
				out[i].M[name] = v
			}
		}
	}
	return out, nil
}

func pendingFromTable(t table) ([]def.PendingRecord, error) {
	out := make([]def.PendingRecord, t.Rows)
	for i := range out {
		out[i] = def.PendingRecord{P: def.Parameters{}}
	}

	jobIDCol, hasJobID := t.Columns["job_id"]
	for name, col := range t.Columns {
		if name == "job_id" {
			continue
		}
		kind, ok := kindFromString(col.Kind)
		if !ok {
			return nil, errs.New(errs.NotebookVersion, "unknown column kind %q for %q", col.Kind, name)
		}
		for i, raw := range col.Data {
			v, err := def.FromJSON(raw, kind)
			if err != nil {
				return nil, err
			}
			out[i].P[name] = v
		}
	}
	if hasJobID {
		for i, raw := range jobIDCol.Data {
			s, _ := raw.(string)
			out[i].JobID = guid.JobID(s)
		}
	}
	return out, nil
}
