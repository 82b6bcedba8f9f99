package orderflow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Severity is the color class a client uses for a status badge.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityNeutral Severity = "neutral"
)

type Presentation struct {
	Status   string   `json:"status"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

var presentations = map[Status]Presentation{
	StatusPending:   {Label: "Chờ xử lý", Severity: SeverityWarning},
	StatusConfirmed: {Label: "Đã xác nhận", Severity: SeverityInfo},
	StatusShipped:   {Label: "Đang giao", Severity: SeverityInfo},
	StatusDelivered: {Label: "Đã giao", Severity: SeveritySuccess},
	StatusCancelled: {Label: "Đã hủy", Severity: SeverityDanger},
}

// DerivePresentation maps a stored status to its label. Unknown statuses are
// passed through verbatim with a neutral severity.
func DerivePresentation(status string) Presentation {
	p, ok := presentations[Status(status)]
	if !ok {
		return Presentation{Status: status, Label: status, Severity: SeverityNeutral}
	}
	p.Status = status
	return p
}

// FormatVND renders an amount rounded to whole dong with dot grouping, e.g. "1.250.000 VND".
// Aggregates keep full precision; rounding only happens here.
func FormatVND(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	neg := d.IsNegative()
	digits := d.Abs().String()

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString(" VND")
	return b.String()
}
