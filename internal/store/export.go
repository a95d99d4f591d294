package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// ExportData is a serializable snapshot of an optimized (or merely rolled
// out) trajectory.
type ExportData struct {
	Model      string      `json:"model"`
	Dt         float64     `json:"dt"`
	Steps      int         `json:"steps"`
	Times      []float64   `json:"times"`
	Positions  [][]float64 `json:"positions"`
	Velocities [][]float64 `json:"velocities"`
	Torques    [][]float64 `json:"torques"`
	Loss       float64     `json:"loss"`
	KnotLoss   float64     `json:"knot_loss"`
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportCSV(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	dofs := 0
	if len(data.Positions) > 0 {
		dofs = len(data.Positions[0])
	}

	header := []string{"t"}
	for i := 0; i < dofs; i++ {
		header = append(header, fmt.Sprintf("pos%d", i))
	}
	for i := 0; i < dofs; i++ {
		header = append(header, fmt.Sprintf("vel%d", i))
	}
	for i := 0; i < dofs; i++ {
		header = append(header, fmt.Sprintf("torque%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for t := range data.Positions {
		row := []string{fmt.Sprintf("%g", data.Times[t])}
		for _, v := range data.Positions[t] {
			row = append(row, fmt.Sprintf("%g", v))
		}
		for _, v := range data.Velocities[t] {
			row = append(row, fmt.Sprintf("%g", v))
		}
		if t < len(data.Torques) {
			for _, v := range data.Torques[t] {
				row = append(row, fmt.Sprintf("%g", v))
			}
		} else {
			for i := 0; i < dofs; i++ {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
