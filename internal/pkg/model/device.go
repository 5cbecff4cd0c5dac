package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnknownDeviceName is used when the registry returns a device without a name.
const UnknownDeviceName = "Unknown"

// DevicesResponse is the envelope returned by GET /ally/devices.
type DevicesResponse struct {
	Result []Device `json:"result"`
	T      *int64   `json:"t,omitempty"`
}

type Device struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status []DeviceStatus `json:"status"`
}

type DeviceStatus struct {
	Code  StatusCode  `json:"code"`
	Value StatusValue `json:"value"`
}

// DisplayName returns the device name or UnknownDeviceName.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return UnknownDeviceName
	}
	return d.Name
}

// Reading returns the value of the first status entry matching code.
// The second return is false when no entry matches or the value is not numeric.
func (d Device) Reading(code StatusCode) (float64, bool) {
	for _, status := range d.Status {
		if status.Code == code {
			return status.Value.Float()
		}
	}
	return 0, false
}

type valueKind int

const (
	kindNull valueKind = iota
	kindNumber
	kindString
	kindBool
)

// StatusValue holds a status reading which the registry sends as a number,
// a string or a boolean.
type StatusValue struct {
	kind valueKind
	num  float64
	str  string
	b    bool
}

func NumberValue(v float64) StatusValue { return StatusValue{kind: kindNumber, num: v} }
func StringValue(v string) StatusValue  { return StatusValue{kind: kindString, str: v} }
func BoolValue(v bool) StatusValue      { return StatusValue{kind: kindBool, b: v} }

// Float coerces the value to a number. Numbers pass through and strings are
// parsed; booleans, null and unparsable strings report false.
func (v StatusValue) Float() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (v StatusValue) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	case kindBool:
		return strconv.FormatBool(v.b)
	}
	return "null"
}

func (v *StatusValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("status value: empty input")
	}
	switch data[0] {
	case 'n':
		*v = StatusValue{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '{', '[':
		return fmt.Errorf("status value: expected number, string or boolean, got %s", data)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("status value: %w", err)
	}
	*v = NumberValue(f)
	return nil
}

func (v StatusValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindString:
		return json.Marshal(v.str)
	case kindBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

// DeviceAboveThreshold is a device whose reading exceeded the configured limit.
type DeviceAboveThreshold struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	MeasuredValue      float64 `json:"measured_value"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
}

// ToCelsius converts a raw reading in tenths of a degree to degrees Celsius.
func ToCelsius(raw float64) float64 {
	return raw / 10.0
}

// FormatCelsius renders a temperature without trailing zeros (28, 28.5).
func FormatCelsius(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
