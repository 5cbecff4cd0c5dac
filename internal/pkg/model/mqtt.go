package model

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// RegisterMessage is a Home Assistant MQTT discovery payload.
type RegisterMessage struct {
	Tilda             string         `json:"~"`
	Name              string         `json:"name"`
	ID                string         `json:"unique_id"`
	StateTopic        string         `json:"state_topic"`
	DeviceClass       string         `json:"device_class"`
	UnitOfMeasurement string         `json:"unit_of_measurement"`
	ValueTemplate     string         `json:"value_template"`
	Device            RegisterDevice `json:"device"`
}

// AlertState is published to a device's state topic when it is over threshold.
type AlertState struct {
	Temperature      float64 `json:"temperature"`
	MeasuredValue    float64 `json:"measured_value"`
	ThresholdCelsius float64 `json:"threshold"`
	Alert            bool    `json:"alert"`
	Timestamp        int64   `json:"timestamp"`
}
