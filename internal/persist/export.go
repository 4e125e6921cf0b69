package persist

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ExportData serializes the persisted state. "json" is the full snapshot;
// "csv" is transactions-only with the header
// Date,Description,Type,Category,Amount,Currency.
func (p *Facade) ExportData(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		state := p.LoadAppState(ctx)
		data, err := json.MarshalIndent(toSnapshot(state), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		return data, nil

	case FormatCSV:
		state := p.LoadAppState(ctx)
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)

		if err := w.Write([]string{"Date", "Description", "Type", "Category", "Amount", "Currency"}); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, t := range state.Transactions {
			row := []string{
				t.Date,
				t.Description,
				string(t.Type),
				t.Category,
				strconv.FormatFloat(t.Amount, 'f', -1, 64),
				state.Currency,
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("failed to flush csv: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
