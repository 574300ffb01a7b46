package environment

import (
	"errors"
	"fmt"
)

// Switch is the state of an alarm output.
// Derived values are always SwitchOn or SwitchOff; overrides may carry any string.
type Switch string

const (
	// SwitchOn means the alarm output is active.
	SwitchOn Switch = "ON"
	// SwitchOff means the alarm output is inactive.
	SwitchOff Switch = "OFF"
)

// SwitchFromBool maps true to SwitchOn and false to SwitchOff.
func SwitchFromBool(on bool) Switch {
	if on {
		return SwitchOn
	}

	return SwitchOff
}

// IsOn reports whether s is exactly SwitchOn.
func (s Switch) IsOn() bool {
	return s == SwitchOn
}

// Alarms holds the two derived alarm outputs.
type Alarms struct {
	// EmergencyCall is ON while the heart rate is out of range.
	EmergencyCall Switch `json:"emergency_call_active"`
	// MachineShutdown is ON while either reading is out of range.
	MachineShutdown Switch `json:"machine_shutdown_active"`
}

// AlarmsOff returns both alarms switched off.
func AlarmsOff() Alarms {
	return Alarms{
		EmergencyCall:   SwitchOff,
		MachineShutdown: SwitchOff,
	}
}

// AlarmField names one of the two alarm outputs that can be overridden.
type AlarmField string

const (
	// FieldEmergencyCall selects Alarms.EmergencyCall.
	FieldEmergencyCall AlarmField = "emergency_call"
	// FieldMachineShutdown selects Alarms.MachineShutdown.
	FieldMachineShutdown AlarmField = "machine_shutdown"
)

// ErrUnknownField is returned for alarm field names outside the known set.
var ErrUnknownField = errors.New("unknown alarm field")

// ParseAlarmField validates s as an AlarmField.
func ParseAlarmField(s string) (AlarmField, error) {
	switch field := AlarmField(s); field {
	case FieldEmergencyCall, FieldMachineShutdown:
		return field, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Set assigns value to field. It returns ErrUnknownField for other fields.
func (a *Alarms) Set(field AlarmField, value Switch) error {
	switch field {
	case FieldEmergencyCall:
		a.EmergencyCall = value
	case FieldMachineShutdown:
		a.MachineShutdown = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return nil
}
