package archive

import (
	"encoding/json"
	"fmt"
)

// Row is the lightweight projection returned by Snapshot.
type Row struct {
	Identity    string `json:"identity"`
	Disposition string `json:"disposition"`
}

// Record holds the full field set for one archive row. Fields beyond identity
// and disposition are opaque to the engine except for the named physical
// features the classification gateway extracts.
type Record struct {
	Identity    string
	Disposition string
	Fields      map[string]any
	Raw         string
}

func parseRecord(raw json.RawMessage) (*Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	record := &Record{
		Fields: fields,
		Raw:    string(raw),
	}
	identity, ok := fields["identity"].(string)
	if !ok || identity == "" {
		return nil, fmt.Errorf("record has no identity field")
	}
	record.Identity = identity
	if disposition, ok := fields["disposition"].(string); ok {
		record.Disposition = disposition
	}
	return record, nil
}

// Feature returns the named numeric field, if present.
func (r *Record) Feature(name string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	switch value := r.Fields[name].(type) {
	case float64:
		return value, true
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
