package providers

import (
	"bytes"
	"encoding/json"
)

// looseString decodes a JSON string or number into its string form.
// null, "", non-scalar values and numeric zero all decode to "", so callers can
// treat the empty string as "missing".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = ""
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			return nil
		}
		*s = looseString(n.String())
	}
	return nil
}
