package relaystore

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// The wire shape of a subscription filter (NIP-01) carries tag criteria as
// dynamically named keys: {"#e": ["..."], "#p": ["..."]}. The JSON codec below
// folds those keys into Filter.Tags and back, so transport code can decode
// straight into the fixed record.

const tagFilterKeyPrefix = "#"

// UnmarshalJSON decodes the wire shape of a filter. Fields absent from the
// JSON object stay nil; fields present with an empty array become non-nil
// empty sets (contradictions). Unknown keys are ignored, matching relay
// behavior for forward compatibility.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Filter{}

	for key, value := range raw {
		var err error

		switch key {
		case "ids":
			err = json.Unmarshal(value, &f.IDs)
		case "authors":
			err = json.Unmarshal(value, &f.Authors)
		case "kinds":
			err = json.Unmarshal(value, &f.Kinds)
		case "since":
			err = json.Unmarshal(value, &f.Since)
		case "until":
			err = json.Unmarshal(value, &f.Until)
		case "limit":
			err = json.Unmarshal(value, &f.Limit)
		default:
			if !strings.HasPrefix(key, tagFilterKeyPrefix) || len(key) != 2 {
				continue
			}

			var values []string
			if err = json.Unmarshal(value, &values); err == nil {
				if f.Tags == nil {
					f.Tags = TagFilters{}
				}
				f.Tags[strings.TrimPrefix(key, tagFilterKeyPrefix)] = values
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// MarshalJSON encodes the filter back into its wire shape, restoring the
// "#"-prefixed tag keys. Absent (nil) criteria are omitted.
func (f Filter) MarshalJSON() ([]byte, error) {
	wire := make(map[string]any)

	if f.IDs != nil {
		wire["ids"] = f.IDs
	}

	if f.Authors != nil {
		wire["authors"] = f.Authors
	}

	if f.Kinds != nil {
		wire["kinds"] = f.Kinds
	}

	if f.Since != nil {
		wire["since"] = *f.Since
	}

	if f.Until != nil {
		wire["until"] = *f.Until
	}

	if f.Limit != nil {
		wire["limit"] = *f.Limit
	}

	for name, values := range f.Tags {
		wire[tagFilterKeyPrefix+name] = values
	}

	return json.Marshal(wire)
}
