package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexNumber holds a numeric form field that clients send either as a JSON
// number or as a numeric string. The raw text is kept so that validation can
// reject values that do not parse.
type FlexNumber string

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = FlexNumber(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = FlexNumber(num.String())
	return nil
}

func (n FlexNumber) Float() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Int accepts whole numbers in any float form ("24", "24.0", "2.4e1").
func (n FlexNumber) Int() (int, error) {
	if i, err := strconv.Atoi(string(n)); err == nil {
		return i, nil
	}
	f, err := n.Float()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%q is not a whole number", string(n))
	}
	return int(f), nil
}
