package score

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the accuracy of a series of runs over keys of the same
// length.
type Summary struct {
	Runs       int
	KeyLen     int
	MinCorrect int
	MaxCorrect int
	// MeanAccuracy and StdDevAccuracy are fractions of KeyLen.
	MeanAccuracy   float64
	StdDevAccuracy float64
}

// Summarize computes accuracy statistics of correct-bit counts. A single run
// has zero standard deviation.
func Summarize(correct []int, keyLen int) Summary {
	s := Summary{Runs: len(correct), KeyLen: keyLen}
	if len(correct) == 0 || keyLen <= 0 {
		return s
	}
	acc := make([]float64, len(correct))
	s.MinCorrect, s.MaxCorrect = correct[0], correct[0]
	for i, c := range correct {
		acc[i] = float64(c) / float64(keyLen)
		s.MinCorrect = min(s.MinCorrect, c)
		s.MaxCorrect = max(s.MaxCorrect, c)
	}
	if len(acc) == 1 {
		s.MeanAccuracy = acc[0]
		return s
	}
	s.MeanAccuracy, s.StdDevAccuracy = stat.MeanStdDev(acc, nil)
	return s
}
