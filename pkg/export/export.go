// Package export renders solved schedules for downstream consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/railos/railsched/core/engine"
	"github.com/railos/railsched/core/timetable"
)

// WriteJSON writes the full solution record to w in JSON format.
func WriteJSON(w io.Writer, sol *engine.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// WriteCSV writes one row per stop with clock-formatted times.
func WriteCSV(w io.Writer, sol *engine.Solution) error {
	cw := csv.NewWriter(w)
	header := []string{
		"train_id", "class", "station", "arrival", "departure", "dwell",
		"weather_delay", "maintenance_delay", "congestion_delay", "operational_delay", "on_time",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, ts := range sol.Schedules {
		for _, stop := range ts.Stops {
			rec := []string{
				ts.TrainID,
				ts.Class.String(),
				stop.Station,
				timetable.FormatMinutes(stop.Arrival),
				timetable.FormatMinutes(stop.Departure),
				strconv.Itoa(stop.Dwell),
				strconv.Itoa(stop.Delays.Weather),
				strconv.Itoa(stop.Delays.Maintenance),
				strconv.Itoa(stop.Delays.Congestion),
				strconv.Itoa(stop.Delays.Operational),
				strconv.FormatBool(ts.OnTime),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
