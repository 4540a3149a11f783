package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	// It matches exactly one topic level.
	// Example: "its/v1/facility/cam/+" matches "its/v1/facility/cam/42".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#".
	// It matches the current level and all subsequent levels.
	// It must be the last character in the topic filter.
	// Example: "its/v1/facility/#" matches "its/v1/facility/cam/42".
	MultiWildcard = "#"
)
