package environment

const (
	// DefaultTemperature is the temperature reported before the first tick.
	DefaultTemperature = 36.5
	// DefaultHeartRate is the heart rate reported before the first tick.
	DefaultHeartRate = 75
)

// Snapshot is a point-in-time copy of the shared simulator state.
// It is a value type and stays valid after the lock that produced it is released.
type Snapshot struct {
	// Temperature is the latest temperature reading.
	Temperature Reading `json:"temperature"`
	// HeartRate is the latest heart rate reading.
	HeartRate Reading `json:"heart_rate"`
	// Alarms are the derived alarm outputs, possibly overridden.
	Alarms Alarms `json:"alarms"`
	// Cycle is the number of completed ticks.
	Cycle uint64 `json:"cycle"`
	// WorkerReplaced marks that the monitored worker was swapped out.
	WorkerReplaced bool `json:"worker_replaced"`
}

// DefaultSnapshot returns the safe startup state.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Temperature: Reading{Channel: ChannelTemperature, Value: DefaultTemperature},
		HeartRate:   Reading{Channel: ChannelHeartRate, Value: DefaultHeartRate},
		Alarms:      AlarmsOff(),
	}
}

// Document projects the snapshot onto the persisted document.
func (s Snapshot) Document() *Document {
	return &Document{
		EmergencyCallActive:   string(s.Alarms.EmergencyCall),
		HeartRate:             s.HeartRate.Value,
		MachineShutdownActive: string(s.Alarms.MachineShutdown),
		Temperature:           s.Temperature.Value,
	}
}
