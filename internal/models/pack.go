package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Pack is one purchasable package size of a vendor offering. It maps to a
// record in the encoded packs collection with the short wire codes below.
// ConversionFactor is computed per operation and never persisted; Extra
// carries unrecognized wire fields through decode/encode untouched.
type Pack struct {
	PackID           string                     // pi
	PackSize         string                     // ps
	PackUnit         string                     // pu
	Stock            decimal.Decimal            // stk
	InStock          int                        // in_stk (0 or 1)
	Tax              string                     // tx
	OriginalPrice    string                     // op
	RetailPrice      string                     // rp
	SerialNumber     int                        // sn
	ConversionFactor decimal.Decimal            // computed
	Extra            map[string]json.RawMessage // pass-through
}

// knownPackFields are the wire codes owned by Pack itself; anything else
// lands in Extra.
var knownPackFields = map[string]struct{}{
	"pi": {}, "ps": {}, "pu": {}, "stk": {}, "in_stk": {},
	"tx": {}, "op": {}, "rp": {}, "sn": {},
}

// UnmarshalJSON decodes a pack record leniently: missing fields default,
// numeric and string forms are both accepted for the legacy columns, and
// unknown fields are retained verbatim.
func (p *Pack) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	p.PackID = coerceString(fields["pi"])
	p.PackSize = coerceString(fields["ps"])
	p.PackUnit = coerceString(fields["pu"])
	p.Stock = coerceDecimal(fields["stk"])
	p.InStock = coerceInt(fields["in_stk"])
	p.Tax = coerceString(fields["tx"])
	p.OriginalPrice = coerceString(fields["op"])
	p.RetailPrice = coerceString(fields["rp"])
	p.SerialNumber = coerceInt(fields["sn"])
	p.ConversionFactor = decimal.Zero

	for key, raw := range fields {
		if _, known := knownPackFields[key]; known {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[key] = raw
	}

	return nil
}

// MarshalJSON re-emits the record with a canonical field order so encoding
// is deterministic: the known wire codes first, then extras sorted by key.
func (p Pack) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeJSONString(&buf, "pi", p.PackID)
	buf.WriteByte(',')
	writeJSONString(&buf, "ps", p.PackSize)
	buf.WriteByte(',')
	writeJSONString(&buf, "pu", p.PackUnit)
	buf.WriteString(`,"stk":`)
	buf.WriteString(p.Stock.String())
	buf.WriteString(`,"in_stk":`)
	buf.WriteString(strconv.Itoa(p.InStock))
	buf.WriteByte(',')
	writeJSONString(&buf, "tx", p.Tax)
	buf.WriteByte(',')
	writeJSONString(&buf, "op", p.OriginalPrice)
	buf.WriteByte(',')
	writeJSONString(&buf, "rp", p.RetailPrice)
	buf.WriteString(`,"sn":`)
	buf.WriteString(strconv.Itoa(p.SerialNumber))

	extraKeys := make([]string, 0, len(p.Extra))
	for key := range p.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		buf.WriteByte(',')
		keyBytes, _ := json.Marshal(key)
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(p.Extra[key])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, key, value string) {
	keyBytes, _ := json.Marshal(key)
	buf.Write(keyBytes)
	buf.WriteByte(':')
	valueBytes, _ := json.Marshal(value)
	buf.Write(valueBytes)
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func coerceDecimal(raw json.RawMessage) decimal.Decimal {
	s := coerceString(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func coerceInt(raw json.RawMessage) int {
	s := coerceString(raw)
	if s == "" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// PackStockUpdate records the stock change applied to a single pack
// during synchronization.
type PackStockUpdate struct {
	PackID   string          `json:"pack_id"`
	OldStock decimal.Decimal `json:"old_stock"`
	NewStock decimal.Decimal `json:"new_stock"`
	Change   decimal.Decimal `json:"change"`
}

// PackInconsistency describes one pack whose declared stock disagrees with
// the reference-implied stock beyond tolerance.
type PackInconsistency struct {
	PackID              string          `json:"pack_id"`
	PackSize            string          `json:"pack_size"`
	PackUnit            string          `json:"pack_unit"`
	ExpectedStock       decimal.Decimal `json:"expected_stock"`
	ActualStock         decimal.Decimal `json:"actual_stock"`
	Difference          decimal.Decimal `json:"difference"`
	DifferenceBaseUnits decimal.Decimal `json:"difference_in_base_units"`
}

// Consistency statuses. StatusUnknown marks checks that could not inspect
// the offering (missing row, undecodable packs) and is reported alongside
// IsConsistent=true to keep the legacy contract.
const (
	ConsistencyStatusConsistent   = "consistent"
	ConsistencyStatusInconsistent = "inconsistent"
	ConsistencyStatusUnknown      = "unknown"
)

// ConsistencyCheckResult is the outcome of a stock consistency validation.
// An inconsistent state is valid output data, not an error.
type ConsistencyCheckResult struct {
	IsConsistent       bool                `json:"is_consistent"`
	Status             string              `json:"status"`
	Inconsistencies    []PackInconsistency `json:"inconsistencies"`
	ReferenceBaseUnits decimal.Decimal     `json:"reference_base_units"`
}

// ConsistentResult builds a passing check result.
func ConsistentResult(referenceBaseUnits decimal.Decimal) ConsistencyCheckResult {
	return ConsistencyCheckResult{
		IsConsistent:       true,
		Status:             ConsistencyStatusConsistent,
		Inconsistencies:    []PackInconsistency{},
		ReferenceBaseUnits: referenceBaseUnits,
	}
}

// InconsistentResult builds a failing check result.
func InconsistentResult(inconsistencies []PackInconsistency, referenceBaseUnits decimal.Decimal) ConsistencyCheckResult {
	return ConsistencyCheckResult{
		IsConsistent:       false,
		Status:             ConsistencyStatusInconsistent,
		Inconsistencies:    inconsistencies,
		ReferenceBaseUnits: referenceBaseUnits,
	}
}

// UnknownConsistencyResult is returned when the offering itself could not
// be loaded or decoded.
func UnknownConsistencyResult() ConsistencyCheckResult {
	return ConsistencyCheckResult{
		IsConsistent:       true,
		Status:             ConsistencyStatusUnknown,
		Inconsistencies:    []PackInconsistency{},
		ReferenceBaseUnits: decimal.Zero,
	}
}

// StockUpdateResult is the typed outcome of a stock mutation. Failures are
// values, not errors, so callers always get a reason string plus
// machine-readable details.
type StockUpdateResult struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message"`
	PackUpdates []PackStockUpdate      `json:"pack_updates"`
	Errors      map[string]interface{} `json:"errors,omitempty"`
}

// UpdateSuccess builds a successful result.
func UpdateSuccess(message string, packUpdates []PackStockUpdate) StockUpdateResult {
	return StockUpdateResult{
		Success:     true,
		Message:     message,
		PackUpdates: packUpdates,
	}
}

// UpdateFailure builds a failed result.
func UpdateFailure(message string, errs map[string]interface{}) StockUpdateResult {
	return StockUpdateResult{
		Success:     false,
		Message:     message,
		PackUpdates: []PackStockUpdate{},
		Errors:      errs,
	}
}
