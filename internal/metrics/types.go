// internal/metrics/types.go
package metrics

// QuestionMeta is the grouping metadata for one question id.
type QuestionMeta struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}
