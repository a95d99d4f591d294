package metrics

import "math"

// ControlEffort is the accumulated absolute torque over the horizon.
func ControlEffort(torques [][]float64) float64 {
	sum := 0.0
	for _, u := range torques {
		for _, v := range u {
			sum += math.Abs(v)
		}
	}
	return sum
}

// MaxAbs is the largest absolute entry, useful for reporting the worst
// shooting-gap residual.
func MaxAbs(v []float64) float64 {
	worst := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > worst {
			worst = a
		}
	}
	return worst
}

// TerminalError is the Euclidean distance of the terminal phase from a goal
// phase; nil goal components are ignored.
func TerminalError(pos, vel, goalPos, goalVel []float64) float64 {
	sum := 0.0
	if goalPos != nil {
		for i := range pos {
			d := pos[i] - goalPos[i]
			sum += d * d
		}
	}
	if goalVel != nil {
		for i := range vel {
			d := vel[i] - goalVel[i]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}
