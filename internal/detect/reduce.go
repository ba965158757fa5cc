package detect

import (
	"math"
	"strings"

	"parkd/pkg/types"
)

type labelClass int

const (
	classOther labelClass = iota
	classEmpty
	classOccupied
	classLot
)

// classify maps a detection label onto a counting bucket by case-insensitive
// substring match. Classification is mutually exclusive, first match wins in
// priority order empty, occupied, lot. Unmatched labels are deliberately
// ignored.
func classify(label string) labelClass {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "empty"):
		return classEmpty
	case strings.Contains(l, "occup"):
		return classOccupied
	case strings.Contains(l, "lot"):
		return classLot
	default:
		return classOther
	}
}

// Reduce derives occupancy statistics from raw detections. Pure function:
// no side effects, never fails, empty input yields all-zero counts.
func Reduce(dets []types.Detection) types.Stats {
	var s types.Stats
	for _, d := range dets {
		switch classify(d.Label) {
		case classEmpty:
			s.Empty++
		case classOccupied:
			s.Occupied++
		case classLot:
			s.LotsDetected++
		}
	}
	s.TotalSpaces = s.Occupied + s.Empty
	if s.TotalSpaces > 0 {
		// Half-to-even on ties: 12.5 rounds to 12, 13.5 to 14.
		s.OccupancyRate = int(math.RoundToEven(float64(s.Occupied) / float64(s.TotalSpaces) * 100))
	}
	return s
}
