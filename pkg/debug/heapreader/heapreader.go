// Package heapreader builds and renders a page-by-page occupancy report of a
// heap file, reading every page through the buffer pool.
package heapreader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"heapdb/pkg/debug/ui"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/heap"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

type PageReport struct {
	PageNo     primitives.PageNumber
	NumSlots   int
	UsedSlots  int
	EmptySlots int
	Rows       [][]string
}

type Report struct {
	Path     string
	TableID  primitives.TableID
	Schema   *tuple.TupleDescription
	NumPages primitives.PageNumber
	Pages    []PageReport
}

func (r *Report) TotalTuples() int {
	n := 0
	for _, p := range r.Pages {
		n += p.UsedSlots
	}
	return n
}

// ParseSchema turns "int,int,string" into a schema with fields c0, c1, ...
func ParseSchema(schema string) (*tuple.TupleDescription, error) {
	parts := strings.Split(schema, ",")
	fieldTypes := make([]types.Type, 0, len(parts))
	names := make([]string, 0, len(parts))

	for i, p := range parts {
		t, err := types.ParseType(p)
		if err != nil {
			return nil, err
		}
		fieldTypes = append(fieldTypes, t)
		names = append(names, fmt.Sprintf("c%d", i))
	}
	return tuple.NewTupleDesc(fieldTypes, names)
}

// Inspect reads every page of hf with ReadOnly permission on behalf of tid.
// The caller completes tid.
func Inspect(pool page.PageGetter, hf *heap.HeapFile, tid primitives.TransactionID) (*Report, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Path:     string(hf.FilePath()),
		TableID:  hf.GetID(),
		Schema:   hf.GetTupleDesc(),
		NumPages: numPages,
		Pages:    make([]PageReport, 0, numPages),
	}

	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		pg, err := pool.GetPage(tid, primitives.NewPageID(hf.GetID(), pageNo), page.ReadOnly)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", pageNo, err)
		}
		hp, ok := pg.(*heap.HeapPage)
		if !ok {
			return nil, fmt.Errorf("page %d is not a heap page", pageNo)
		}

		tuples := hp.GetTuples()
		pr := PageReport{
			PageNo:     pageNo,
			NumSlots:   int(hp.NumSlots()),
			UsedSlots:  len(tuples),
			EmptySlots: int(hp.GetNumEmptySlots()),
			Rows:       make([][]string, 0, len(tuples)),
		}
		for _, t := range tuples {
			pr.Rows = append(pr.Rows, formatTuple(t))
		}
		report.Pages = append(report.Pages, pr)
	}
	return report, nil
}

func formatTuple(t *tuple.Tuple) []string {
	n := t.TupleDesc.NumFields()
	row := make([]string, 0, n+1)
	slot := "?"
	if t.RecordID != nil {
		slot = fmt.Sprintf("%d", t.RecordID.Slot)
	}
	row = append(row, slot)

	for i := 0; i < n; i++ {
		f, err := t.GetField(i)
		if err != nil {
			row = append(row, "ERROR")
			continue
		}
		row = append(row, FormatField(f))
	}
	return row
}

func FormatField(field types.Field) string {
	if field == nil {
		return "NULL"
	}
	switch f := field.(type) {
	case types.IntField:
		return fmt.Sprintf("%d", f.Value)
	case types.StringField:
		return fmt.Sprintf("%q", f.Value)
	default:
		return field.String()
	}
}

// Render formats r for a terminal.
func Render(r *Report) string {
	var b strings.Builder

	b.WriteString(ui.RenderTitle("▤", "Heap File Inspector") + "\n")
	b.WriteString(ui.RenderKeyValue(
		[2]string{"file", r.Path},
		[2]string{"table id", fmt.Sprintf("%d", r.TableID)},
		[2]string{"schema", r.Schema.String()},
		[2]string{"page size", fmt.Sprintf("%d bytes", page.Size())},
		[2]string{"pages", fmt.Sprintf("%d", r.NumPages)},
		[2]string{"tuples", fmt.Sprintf("%d", r.TotalTuples())},
	) + "\n\n")

	if len(r.Pages) == 0 {
		b.WriteString(ui.WarningStyle.Render("file has no pages") + "\n")
		return b.String()
	}

	headers := []string{"slot"}
	for i := 0; i < r.Schema.NumFields(); i++ {
		name, _ := r.Schema.GetFieldName(i)
		headers = append(headers, name)
	}

	for _, p := range r.Pages {
		header := ui.RenderHeaderWithCount(fmt.Sprintf("page %d", p.PageNo), p.UsedSlots)
		occupancy := ui.PageInfoStyle.Render(fmt.Sprintf("%d/%d slots used, %d empty", p.UsedSlots, p.NumSlots, p.EmptySlots))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, header, occupancy) + "\n")

		if len(p.Rows) == 0 {
			b.WriteString(ui.MutedStyle.Render("  (empty)") + "\n\n")
			continue
		}
		b.WriteString(ui.RenderTable(headers, p.Rows) + "\n")
	}
	return b.String()
}
