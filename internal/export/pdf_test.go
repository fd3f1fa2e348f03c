package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePDF(t *testing.T) {
	var entries []models.ActivityLogEntry
	for i := 0; i < 120; i++ {
		entries = append(entries, models.ActivityLogEntry{
			ID:        int64(i + 1),
			Timestamp: time.Now(),
			Username:  "clerk",
			Action:    models.ActionAssetIssued,
			Details:   "Issued C.G. 'Drill' to Zoë Łukasz " + strings.Repeat("long detail ", 10),
		})
	}

	var buf bytes.Buffer
	err := WritePDF(&buf, Report{Title: "General Activity Log Summary", Sheet: ActivitySheet(entries)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPDFEmptyAndInvalid(t *testing.T) {
	data, err := RenderPDF(Report{
		Title:    "Capital Goods Transaction Log Report",
		Subtitle: "All entries",
		Sheet:    TransactionsSheet("Transactions", nil),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = RenderPDF(Report{Title: "Nothing", Sheet: Sheet{}})
	assert.Error(t, err)
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "Zoë ? a b\nc", latin1("Zoë Ł a\tb\nc"))
}
