package store

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// Embedding is a face embedding vector, stored as a jsonb array. An empty
// embedding means the guardian is not enrolled yet.
type Embedding []float64

func (e Embedding) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *Embedding) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return errors.Errorf("cannot scan embedding from %T", src)
	}
}
