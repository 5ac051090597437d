package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// Observation is one normalized data point belonging to an import. RowIndex
// is the 1-based position in the source file and the sort key for every read
// path. At most one of ValueNum/ValueText is set; both are nil only for rows
// that were recorded with a parse warning.
type Observation struct {
	ID        uuid.UUID `json:"id"`
	ImportID  uuid.UUID `json:"import_id"`
	RowIndex  int       `json:"row_index"`
	Date      string    `json:"date"`
	Series    string    `json:"series"`
	ValueNum  *float64  `json:"value_num,omitempty"`
	ValueText *string   `json:"value_text,omitempty"`
	Frequency string    `json:"frequency,omitempty"`
	Units     string    `json:"units,omitempty"`
	Country   string    `json:"country,omitempty"`
}

// Value renders the observation value for export: the numeric value as a
// plain decimal when present, otherwise the text value, otherwise empty.
func (o Observation) Value() string {
	if o.ValueNum != nil {
		return strconv.FormatFloat(*o.ValueNum, 'f', -1, 64)
	}
	if o.ValueText != nil {
		return *o.ValueText
	}
	return ""
}

// RowFilter narrows paginated observation reads. Series is a
// case-insensitive substring match on the stored series value; DateFrom and
// DateTo are inclusive bounds on the canonical date string.
type RowFilter struct {
	Series   string
	DateFrom string
	DateTo   string
}
