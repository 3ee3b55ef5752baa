package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PlatformCounters stores cumulative per-platform connection counts as a JSONB map.
type PlatformCounters map[string]int64

// Scan decodes the JSONB column value.
func (p *PlatformCounters) Scan(src any) error {
	if src == nil {
		*p = PlatformCounters{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return p.parse(v)
	case string:
		return p.parse([]byte(v))
	default:
		return fmt.Errorf("PlatformCounters: unsupported Scan type %T", src)
	}
}

// Value marshals the map into a JSONB literal.
func (p PlatformCounters) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]int64(p))
	if err != nil {
		return nil, fmt.Errorf("PlatformCounters: marshal: %w", err)
	}
	return string(raw), nil
}

func (p *PlatformCounters) parse(raw []byte) error {
	if len(raw) == 0 {
		*p = PlatformCounters{}
		return nil
	}
	out := map[string]int64{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("PlatformCounters: unmarshal: %w", err)
	}
	*p = PlatformCounters(out)
	return nil
}

// Get returns the counter for a platform, zero when absent.
func (p PlatformCounters) Get(platform string) int64 {
	if p == nil {
		return 0
	}
	return p[platform]
}
