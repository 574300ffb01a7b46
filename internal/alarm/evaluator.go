package alarm

import (
	"errors"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Thresholds are the inclusive out-of-range limits per channel.
type Thresholds struct {
	// TemperatureHigh triggers at or above this °C value.
	TemperatureHigh float64 `yaml:"temperature_high"`
	// TemperatureLow triggers at or below this °C value.
	TemperatureLow float64 `yaml:"temperature_low"`
	// HeartRateHigh triggers at or above this bpm value.
	HeartRateHigh float64 `yaml:"heart_rate_high"`
	// HeartRateLow triggers at or below this bpm value.
	HeartRateLow float64 `yaml:"heart_rate_low"`
}

// ErrInvertedThresholds is returned when a low limit is not below its high limit.
var ErrInvertedThresholds = errors.New("low threshold must be below high threshold")

// DefaultThresholds returns the reference limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TemperatureHigh: 38.5,
		TemperatureLow:  35.0,
		HeartRateHigh:   105,
		HeartRateLow:    45,
	}
}

// Validate checks that each channel's range is not empty.
func (t Thresholds) Validate() error {
	if t.TemperatureLow >= t.TemperatureHigh || t.HeartRateLow >= t.HeartRateHigh {
		return ErrInvertedThresholds
	}

	return nil
}

// Evaluation is the outcome of one evaluation.
type Evaluation struct {
	// Alarms are the derived outputs.
	Alarms environment.Alarms
	// Temperature classifies the temperature reading.
	Temperature Condition
	// HeartRate classifies the heart rate reading.
	HeartRate Condition
}

// TemperatureAlarm reports whether the temperature is out of range.
func (e Evaluation) TemperatureAlarm() bool {
	return e.Temperature != ConditionNormal
}

// HeartRateAlarm reports whether the heart rate is out of range.
func (e Evaluation) HeartRateAlarm() bool {
	return e.HeartRate != ConditionNormal
}

// Severity summarises the evaluation. A heart rate alarm outranks a temperature alarm.
func (e Evaluation) Severity() Severity {
	switch {
	case e.HeartRateAlarm():
		return SeverityCritical
	case e.TemperatureAlarm():
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Evaluate derives the alarm outputs for one pair of readings.
func (t Thresholds) Evaluate(temperature, heartRate float64) Evaluation {
	e := Evaluation{
		Temperature: classify(temperature, t.TemperatureLow, t.TemperatureHigh, ConditionHypothermia, ConditionHighFever),
		HeartRate:   classify(heartRate, t.HeartRateLow, t.HeartRateHigh, ConditionBradycardia, ConditionTachycardia),
	}

	e.Alarms = environment.Alarms{
		EmergencyCall:   environment.SwitchFromBool(e.HeartRateAlarm()),
		MachineShutdown: environment.SwitchFromBool(e.HeartRateAlarm() || e.TemperatureAlarm()),
	}

	return e
}

// Evaluate applies DefaultThresholds.
func Evaluate(temperature, heartRate float64) Evaluation {
	return DefaultThresholds().Evaluate(temperature, heartRate)
}

// classify maps value onto low, high or normal; the high limit is checked first.
func classify(value, low, high float64, lowCondition, highCondition Condition) Condition {
	switch {
	case value >= high:
		return highCondition
	case value <= low:
		return lowCondition
	default:
		return ConditionNormal
	}
}
