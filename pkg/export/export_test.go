package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"classroom", "slot", "course"},
		Rows:    [][]string{{"Room A", "Monday 09:00", "Math, advanced"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "classroom,slot,course\nRoom A,Monday 09:00,\"Math, advanced\"\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only"}}})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocuments(t *testing.T) {
	exporter := NewPDFExporter()

	table, err := exporter.Render(Dataset{Headers: []string{"slot"}, Rows: [][]string{{"Monday 09:00"}}}, "calendar")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(table, []byte("%PDF")))

	letter, err := exporter.RenderLetter("supplier order", []string{"Dear Supplier,", "", "Please deliver 5 chairs."})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(letter, []byte("%PDF")))
}
