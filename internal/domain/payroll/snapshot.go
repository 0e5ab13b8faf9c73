package payroll

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EncodeSnapshot serializes figures for the settled_data column.
func EncodeSnapshot(f SalaryFigures) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode salary snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a settled_data column. Empty input yields nil.
func DecodeSnapshot(b []byte) (*SalaryFigures, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var f SalaryFigures
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode salary snapshot: %w", err)
	}
	if f.LeaveDays == nil {
		f.LeaveDays = map[string]float64{}
	}
	return &f, nil
}
