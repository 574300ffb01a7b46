package environment

// Channel identifies one monitored quantity.
type Channel string

const (
	// ChannelTemperature is the worker's body temperature in °C.
	ChannelTemperature Channel = "temperature"
	// ChannelHeartRate is the worker's heart rate in beats per minute.
	ChannelHeartRate Channel = "heart_rate"
)

// Channels returns every channel in the order they are sampled on a tick.
func Channels() []Channel {
	return []Channel{ChannelTemperature, ChannelHeartRate}
}

// Reading is one sampled value of a channel.
type Reading struct {
	// Channel is the quantity this value belongs to.
	Channel Channel `json:"channel"`
	// Value is the sampled value.
	Value float64 `json:"value"`
	// Tick is the 1-based number of the sample on its channel; zero for defaults.
	Tick uint64 `json:"tick"`
}
