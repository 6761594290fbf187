package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Image is a hosted image reference: the storage object key and its public URL.
type Image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ImageList stores a slice of images as a JSON column.
type ImageList []Image

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = ImageList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for ImageList")
	}
	if len(data) == 0 {
		*l = ImageList{}
		return nil
	}
	return json.Unmarshal(data, l)
}
