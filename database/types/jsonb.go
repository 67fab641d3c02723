// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package databasetypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

type JSONB map[string]any

// Value Marshal
func (jsonField JSONB) Value() (driver.Value, error) {
	if jsonField == nil {
		return nil, nil
	}
	return json.Marshal(jsonField)
}

// Scan Unmarshal
func (jsonField *JSONB) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*jsonField = nil
		return nil
	case []byte:
		return json.Unmarshal(v, jsonField)
	case string:
		return json.Unmarshal([]byte(v), jsonField)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
}

func (jsonField JSONB) GetString(key string) string {
	if v, ok := jsonField[key].(string); ok {
		return v
	}
	return ""
}

// Decode copies the map into a typed settings struct. Field names are matched
// through their json tags.
func (jsonField JSONB) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(jsonField))
}

func JSONBFromStruct(m any) (JSONB, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var jsonb JSONB
	err = json.Unmarshal(data, &jsonb)
	if err != nil {
		return nil, err
	}
	return jsonb, nil
}

func MustJSONBFromStruct(m any) JSONB {
	jsonb, err := JSONBFromStruct(m)
	if err != nil {
		panic(err)
	}
	return jsonb
}
