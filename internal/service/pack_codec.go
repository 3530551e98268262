package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ParseError reports an encoded pack collection that is malformed at the
// outer level. It carries the offending payload for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed pack JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PackCodec parses and serializes the encoded pack collection stored per
// vendor offering. Parsing is strict on the outer structure and lenient
// per element; serialization is deterministic and preserves insertion
// order plus pass-through fields.
type PackCodec struct {
	logger *zap.Logger
}

// NewPackCodec creates a pack codec.
func NewPackCodec() *PackCodec {
	return &PackCodec{logger: util.GetLogger()}
}

// ParsePacks decodes the raw pack collection. Null or empty input yields
// an empty slice. Both the array form and the legacy object form keyed by
// pack id are accepted; element order is preserved for both. Elements
// that are not well-formed records are skipped with a warning.
func (m *PackCodec) ParsePacks(raw string) ([]*models.Pack, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []*models.Pack{}, nil
	}

	records, err := decodePackRecords(trimmed)
	if err != nil {
		m.logger.Error("Failed to parse pack JSON", zap.String("json", raw), zap.Error(err))
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if records == nil {
		m.logger.Warn("Pack JSON decoded to non-collection value", zap.String("json", raw))
		return []*models.Pack{}, nil
	}

	packs := make([]*models.Pack, 0, len(records))
	for _, record := range records {
		var pack models.Pack
		if err := json.Unmarshal(record, &pack); err != nil {
			m.logger.Warn("Invalid pack record in JSON, skipping",
				zap.String("pack_data", string(record)),
				zap.Error(err))
			continue
		}
		packs = append(packs, &pack)
	}

	return packs, nil
}

// decodePackRecords splits the outer collection into raw records. A nil
// slice with nil error means the payload was valid JSON but not a
// collection.
func decodePackRecords(trimmed string) ([]json.RawMessage, error) {
	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		// Legacy form: an object keyed by pack id. Walk tokens so the
		// stored key order survives the round trip.
		dec := json.NewDecoder(strings.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var records []json.RawMessage
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			var record json.RawMessage
			if err := dec.Decode(&record); err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		if records == nil {
			records = []json.RawMessage{}
		}
		return records, nil
	default:
		if !json.Valid([]byte(trimmed)) {
			return nil, fmt.Errorf("invalid JSON payload")
		}
		return nil, nil
	}
}

// SerializePacks encodes the pack list back to its stored form. The empty
// list encodes to "[]".
func (m *PackCodec) SerializePacks(packs []*models.Pack) (string, error) {
	if len(packs) == 0 {
		return "[]", nil
	}

	encoded, err := json.Marshal(packs)
	if err != nil {
		return "", fmt.Errorf("failed to serialize packs: %w", err)
	}
	return string(encoded), nil
}

// ApplyStockUpdates replaces the stock of every pack present in updates
// and recomputes its in-stock flag. Negative stock is written as-is; the
// codec does not clamp.
func (m *PackCodec) ApplyStockUpdates(packs []*models.Pack, updates map[string]decimal.Decimal) []*models.Pack {
	for _, pack := range packs {
		newStock, ok := updates[pack.PackID]
		if !ok {
			continue
		}
		pack.Stock = newStock
		if newStock.IsPositive() {
			pack.InStock = 1
		} else {
			pack.InStock = 0
		}
	}
	return packs
}

// HasAnyStock reports whether any pack holds positive stock. It backs the
// offering-level in-stock flag.
func (m *PackCodec) HasAnyStock(packs []*models.Pack) bool {
	for _, pack := range packs {
		if pack.Stock.IsPositive() {
			return true
		}
	}
	return false
}
