package store

// DefaultCatalog returns the reference set of five plant sensors.
func DefaultCatalog() []Sensor {
	return []Sensor{
		{ID: "temp-line", Name: "Line temperature", Unit: "°C", Location: "Shop 1", Nominal: 62, Minimum: 40, Maximum: 85},
		{ID: "humidity-line", Name: "Humidity", Unit: "%", Location: "Shop 1", Nominal: 45, Minimum: 25, Maximum: 70},
		{ID: "pressure-loop", Name: "Pressure", Unit: "kPa", Location: "Cooling loop", Nominal: 210, Minimum: 160, Maximum: 260},
		{ID: "vibration", Name: "Vibration", Unit: "mm/s", Location: "Press A-14", Nominal: 2.4, Minimum: 0.8, Maximum: 4.5},
		{ID: "flow", Name: "Flow", Unit: "L/min", Location: "Feed section", Nominal: 180, Minimum: 120, Maximum: 240},
	}
}
