package store

// chartMargin pads the chart value axis beyond the calibration range.
const chartMargin = 0.2

// Summary aggregates the current status of the whole catalog.
type Summary struct {
	Total   int            `json:"total"`
	Counts  map[Status]int `json:"counts"`
	Alerts  int            `json:"alerts"`
	Sensors []SensorState  `json:"sensors"`
}

// Summarize builds a [Summary] from states in the order given.
func Summarize(states []SensorState) Summary {
	counts := map[Status]int{
		StatusNormal:  0,
		StatusCaution: 0,
		StatusLow:     0,
		StatusHigh:    0,
	}
	sum := Summary{Total: len(states), Counts: counts, Sensors: states}
	for _, st := range states {
		sum.Counts[st.Status]++
		if st.Status == StatusLow || st.Status == StatusHigh {
			sum.Alerts++
		}
	}
	return sum
}

// ChartRange is the value-axis window used when plotting a sensor.
type ChartRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ChartRangeFor pads the sensor's calibration range by 20% on each side.
func ChartRangeFor(s Sensor) ChartRange {
	margin := s.Range() * chartMargin
	return ChartRange{Min: s.Minimum - margin, Max: s.Maximum + margin}
}
