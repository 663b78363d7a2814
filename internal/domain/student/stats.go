package student

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the student population
type Stats struct {
	Count  int         `json:"count"`
	Active int         `json:"active"`
	GPA    *GPAStats   `json:"gpa,omitempty"`
	ByYear map[int]int `json:"byYear"`
}

// GPAStats describes the distribution of recorded GPAs. Students without a
// GPA are left out.
type GPAStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ComputeStats aggregates counts per year and GPA statistics
func ComputeStats(students []Student) Stats {
	s := Stats{
		Count:  len(students),
		ByYear: make(map[int]int),
	}

	gpas := make([]float64, 0, len(students))
	for i := range students {
		st := &students[i]
		s.ByYear[st.Year]++
		if st.IsActive {
			s.Active++
		}
		if st.GPA != nil {
			gpas = append(gpas, *st.GPA)
		}
	}

	if len(gpas) > 0 {
		s.GPA = gpaStats(gpas)
	}
	return s
}

func gpaStats(x []float64) *GPAStats {
	sort.Float64s(x)
	n := len(x)

	mean, std := stat.MeanStdDev(x, nil)
	if n < 2 || math.IsNaN(std) {
		std = 0
	}

	return &GPAStats{
		Count:  n,
		Mean:   round(mean),
		StdDev: round(std),
		Median: round((x[(n-1)/2] + x[n/2]) / 2),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
