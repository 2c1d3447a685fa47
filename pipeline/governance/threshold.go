package governance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingMetricReason is recorded when the threshold metric is absent.
const MissingMetricReason = "missing metric; adjustment not permitted under conservative policy"

// ThresholdResult is the verdict of the HR@τ minimum bound.
type ThresholdResult struct {
	OK      bool
	Value   *float64
	Minimum float64
	Reason  string
}

// EvaluateThreshold passes iff value is present and value >= minimum.
func EvaluateThreshold(value *float64, minimum float64) ThresholdResult {
	res := ThresholdResult{Value: value, Minimum: minimum}
	if value == nil {
		res.Reason = MissingMetricReason
		return res
	}
	res.OK = *value >= minimum
	res.Reason = fmt.Sprintf("HR@τ=%s vs threshold %s", FormatFull(*value), FormatFull(minimum))
	return res
}

// FormatFull prints v with the shortest round-trip representation, padded to
// at least six decimals (0.65 -> "0.650000", 0.30000000000000004 stays as is).
func FormatFull(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		s += "."
		dot = len(s) - 1
	}
	if decimals := len(s) - dot - 1; decimals < 6 {
		s += strings.Repeat("0", 6-decimals)
	}
	return s
}
