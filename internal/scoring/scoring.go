package scoring

import (
	"fmt"
	"math"
)

// Status classifies a final score for display and history bucketing.
type Status string

const (
	StatusSafe   Status = "safe"
	StatusDanger Status = "danger"
)

// Domain-age thresholds for the heuristic adjustment. Registrations younger
// than NewDomainDays raise the score; older than EstablishedDays lower it.
// Ages inside [NewDomainDays, EstablishedDays] are neutral.
const (
	NewDomainDays    = 30
	EstablishedDays  = 1000
	newDomainPenalty = 15
	establishedBonus = 10
)

// DangerThreshold is the final score at or above which a URL is flagged.
const DangerThreshold = 50

// Result is the outcome of blending classifier confidence with the
// domain-age heuristic.
type Result struct {
	Score   float64
	Status  Status
	Reasons []string
}

// Score blends the classifier's phishing probability (0..1) with the
// domain-age heuristic. ageDays is nil when the registration age is
// unknown; an unknown age applies no adjustment and adds no reason.
func Score(badProbability float64, ageDays *int) Result {
	aiConfidence := badProbability * 100
	riskScore := aiConfidence

	var reasons []string
	if aiConfidence > 50 {
		reasons = append(reasons, fmt.Sprintf("AI Model is %.1f%% confident this matches phishing patterns", aiConfidence))
	} else {
		reasons = append(reasons, fmt.Sprintf("AI Analysis indicates a %.1f%% safety confidence", 100-aiConfidence))
	}

	if ageDays != nil {
		switch {
		case *ageDays < NewDomainDays:
			riskScore += newDomainPenalty
			reasons = append(reasons, fmt.Sprintf("Security Alert: Domain is brand new (%d days old)", *ageDays))
		case *ageDays > EstablishedDays:
			riskScore -= establishedBonus
			reasons = append(reasons, "Trust Factor: Established domain (over 3 years old)")
		}
	}

	finalScore := math.Round(riskScore*10) / 10
	if finalScore < 0 {
		finalScore = 0
	} else if finalScore > 100 {
		finalScore = 100
	}

	status := StatusSafe
	if finalScore >= DangerThreshold {
		status = StatusDanger
	}

	return Result{
		Score:   finalScore,
		Status:  status,
		Reasons: reasons,
	}
}
