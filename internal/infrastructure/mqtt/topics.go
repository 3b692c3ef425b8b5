package mqtt

import (
	"fmt"
	"strings"
)

// Topic tree roots.
//
// Device topics use the flat scheme: smarthome/{category}/{kind}/{name}
const (
	topicRoot   = "smarthome"
	systemTopic = topicRoot + "/system/status"
)

// Device kinds used as the third topic segment.
const (
	kindOutlet      = "outlet"
	kindThermometer = "thermometer"
)

// Topic categories used as the second segment.
const (
	categoryState    = "state"
	categoryCommand  = "command"
	categoryResponse = "response"
)

// Topics provides builders for SmartHome MQTT topics.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.OutletState("socket")
//	// Returns: "smarthome/state/outlet/socket"
type Topics struct{}

func deviceTopic(category, kind, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", topicRoot, category, kind, name)
}

// OutletState returns the retained state topic for an outlet.
func (Topics) OutletState(name string) string {
	return deviceTopic(categoryState, kindOutlet, name)
}

// OutletCommand returns the command topic for an outlet.
func (Topics) OutletCommand(name string) string {
	return deviceTopic(categoryCommand, kindOutlet, name)
}

// OutletResponse returns the topic carrying replies to outlet commands.
func (Topics) OutletResponse(name string) string {
	return deviceTopic(categoryResponse, kindOutlet, name)
}

// ThermometerState returns the retained reading topic for a thermometer.
func (Topics) ThermometerState(name string) string {
	return deviceTopic(categoryState, kindThermometer, name)
}

// SystemStatus returns the retained online/offline topic, also used as the will.
func (Topics) SystemStatus() string {
	return systemTopic
}

// validateDeviceName rejects names that would add topic levels or act as
// wildcards when placed in a device topic.
func validateDeviceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDeviceName)
	}
	if strings.ContainsAny(name, "/+#") {
		return fmt.Errorf("%w: %q contains a topic separator or wildcard", ErrInvalidDeviceName, name)
	}
	return nil
}
