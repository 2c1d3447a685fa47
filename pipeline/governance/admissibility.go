package governance

import "fmt"

// AdmissibilityResult is the structural verdict over DQC and FPC.
type AdmissibilityResult struct {
	OK      bool
	Reasons []string
}

// EvaluateAdmissibility blocks when either classification is Blocked. Unknown
// labels do not block; they add an informational notice. Reasons are ordered:
// DQC blocking, FPC blocking, then absence notices.
func EvaluateAdmissibility(dqc, fpc Classification) AdmissibilityResult {
	res := AdmissibilityResult{OK: true}
	if dqc.Kind == Blocked {
		res.OK = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("DQC not admissible: %s", dqc.Normalized))
	}
	if fpc.Kind == Blocked {
		res.OK = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("FPC not compatible: %s", fpc.Normalized))
	}
	if dqc.Kind == Unknown {
		res.Reasons = append(res.Reasons, "DQC class not found in artifact (proceeding conservatively).")
	}
	if fpc.Kind == Unknown {
		res.Reasons = append(res.Reasons, "FPC class not found in artifact (proceeding conservatively).")
	}
	return res
}
