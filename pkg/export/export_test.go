package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Timetable 10A",
		Headers: []string{"Slot", "MON", "TUE"},
		Rows:    [][]string{{"07:00-07:45", "Math\nAlice", "Physics\nBob"}, {"07:45-08:00"}},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	expected := "Slot,MON,TUE\n07:00-07:45,\"Math\nAlice\",\"Physics\nBob\"\n07:45-08:00,,\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestTableRejectsWideRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{Headers: []string{"a"}, Rows: [][]string{{"1", "2"}}})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(3)
	assert.Equal(t, firstColWidth, widths[0])
	assert.InDelta(t, pageWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.Equal(t, []float64{pageWidth}, columnWidths(1))
}
