package alarm

// Condition classifies one reading.
type Condition string

const (
	// ConditionNormal means the reading is within range.
	ConditionNormal Condition = "normal"
	// ConditionHighFever is a temperature at or above the high limit.
	ConditionHighFever Condition = "high_fever"
	// ConditionHypothermia is a temperature at or below the low limit.
	ConditionHypothermia Condition = "hypothermia"
	// ConditionTachycardia is a heart rate at or above the high limit.
	ConditionTachycardia Condition = "tachycardia"
	// ConditionBradycardia is a heart rate at or below the low limit.
	ConditionBradycardia Condition = "bradycardia"
)

// Label returns the console label for the condition.
func (c Condition) Label() string {
	switch c {
	case ConditionHighFever:
		return "HIGH FEVER"
	case ConditionHypothermia:
		return "HYPOTHERMIA"
	case ConditionTachycardia:
		return "TACHYCARDIA"
	case ConditionBradycardia:
		return "BRADYCARDIA"
	default:
		return "Normal"
	}
}

// Severity is the overall status of one evaluation.
type Severity string

const (
	// SeverityNormal means no alarm is active.
	SeverityNormal Severity = "normal"
	// SeverityWarning means only the temperature is out of range.
	SeverityWarning Severity = "warning"
	// SeverityCritical means the heart rate is out of range.
	SeverityCritical Severity = "critical"
)
