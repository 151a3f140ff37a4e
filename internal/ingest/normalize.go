package ingest

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// DefaultPIIFields are stripped from every record during normalization.
// PII must never survive past this point, neither in the typed record nor
// in the raw payload kept for quarantine.
var DefaultPIIFields = []string{"customerName"}

// Normalize flattens a raw transaction object into a uniform Record:
// nested objects become dot-keyed flat fields, PII fields are removed
// unconditionally, and the canonical fields are extracted into typed form.
// Dates and amounts that fail to parse are represented as nil, never as an
// error; the validator turns that absence into a quarantine reason.
func Normalize(raw map[string]any, piiFields []string) model.Record {
	if len(piiFields) == 0 {
		piiFields = DefaultPIIFields
	}

	flat := flatten("", raw)
	for _, f := range piiFields {
		delete(flat, f)
	}

	return model.Record{
		CustomerID:      stringField(flat, "customerId"),
		TransactionID:   stringField(flat, "transactionId"),
		TransactionDate: model.ParseDate(flat["transactionDate"]),
		SourceDate:      model.ParseDate(flat["sourceDate"]),
		MerchantID:      stringField(flat, "merchantId"),
		CategoryID:      stringField(flat, "categoryId"),
		Amount:          decimalField(flat, "amount"),
		Description:     stringField(flat, "description"),
		Currency:        stringField(flat, "currency"),
		Raw:             flat,
	}
}

// flatten converts nested objects into dot-keyed entries, e.g.
// {"meta": {"channel": "web"}} becomes {"meta.channel": "web"}.
func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func stringField(flat map[string]any, key string) string {
	switch v := flat[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func decimalField(flat map[string]any, key string) *decimal.Decimal {
	var s string
	switch v := flat[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	default:
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
