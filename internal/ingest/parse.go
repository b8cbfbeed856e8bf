package ingest

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"expense_tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; the first to parse wins
var dateLayouts = []string{
	domain.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	time.RFC3339,
}

func parseDate(raw string) (domain.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Date{}, errors.New("missing transaction_date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return domain.Date{}, errors.New("unparsable transaction_date " + quote(raw))
}

var amountNoise = strings.NewReplacer("$", "", "€", "", " ", "")

// Accepted comma layouts. Any other comma makes the amount ambiguous.
var (
	commaGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)  // 1,234 or 1,234.56
	dotGrouped   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d{1,2}$`) // 1.234,56
	decimalComma = regexp.MustCompile(`^\d+,\d{1,2}$`)               // 4,50
)

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("missing amount")
	}
	sign := ""
	if cleaned[0] == '-' || cleaned[0] == '+' {
		sign, cleaned = cleaned[:1], cleaned[1:]
	}
	if strings.Contains(cleaned, ",") {
		switch {
		case commaGrouped.MatchString(cleaned):
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		case dotGrouped.MatchString(cleaned):
			cleaned = strings.Replace(strings.ReplaceAll(cleaned, ".", ""), ",", ".", 1)
		case decimalComma.MatchString(cleaned):
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		default:
			return decimal.Decimal{}, errors.New("ambiguous amount " + quote(raw))
		}
	}
	d, err := decimal.NewFromString(sign + cleaned)
	if err != nil {
		return decimal.Decimal{}, errors.New("unparsable amount " + quote(raw))
	}
	return d.Round(2), nil
}

func quote(s string) string {
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return `"` + s + `"`
}
