package history

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		return json.Unmarshal(v, dst)
	}
	return fmt.Errorf("cannot scan %T into %T", src, dst)
}

func valueJSON(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Photo is a reference picture of a model. The preview photo is the one
// handed to the image model.
type Photo struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

const PhotoPreview = "preview"

type Photos []Photo

func (p Photos) Value() (driver.Value, error) {
	if p == nil {
		p = Photos{}
	}
	return valueJSON(p)
}

func (p *Photos) Scan(src any) error {
	return scanJSON(src, p)
}

// Parameters are the image-config hints a generation was made with.
type Parameters map[string]string

func (p Parameters) Value() (driver.Value, error) {
	if p == nil {
		p = Parameters{}
	}
	return valueJSON(p)
}

func (p *Parameters) Scan(src any) error {
	return scanJSON(src, p)
}
