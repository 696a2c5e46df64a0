package mqtt

import "strings"

// Topic constants
const (
	// Light commands, one topic per light; + is the light id
	TopicLightCommand = "automation/command/light/+"

	// Best configuration of the latest parameter search (retained)
	TopicSearchBest = "automation/occupancy/search/best"
)

// LightCommandTopic constructs the command topic of a light
// Pattern: automation/command/light/{light}
func LightCommandTopic(light string) string {
	return strings.Replace(TopicLightCommand, "+", light, 1)
}
