package leap

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CommuniqueType classifies a LEAP message.
type CommuniqueType string

// CommuniqueType constants.
const (
	CommuniqueReadRequest       CommuniqueType = "ReadRequest"
	CommuniqueReadResponse      CommuniqueType = "ReadResponse"
	CommuniqueCreateRequest     CommuniqueType = "CreateRequest"
	CommuniqueCreateResponse    CommuniqueType = "CreateResponse"
	CommuniqueUpdateRequest     CommuniqueType = "UpdateRequest"
	CommuniqueUpdateResponse    CommuniqueType = "UpdateResponse"
	CommuniqueSubscribeRequest  CommuniqueType = "SubscribeRequest"
	CommuniqueSubscribeResponse CommuniqueType = "SubscribeResponse"
	CommuniqueExceptionResponse CommuniqueType = "ExceptionResponse"
)

// Well-known LEAP URLs.
const (
	// DeviceListURL is the inventory query endpoint.
	DeviceListURL = "/device"

	// DeviceHeardURL carries "a device was just heard on the radio"
	// notifications. A device reported here is not necessarily enumerable
	// via DeviceListURL yet.
	DeviceHeardURL = "/device/status/deviceheard"

	// OccupancyGroupStatusURL carries occupancy sensor status updates.
	OccupancyGroupStatusURL = "/occupancygroup/status"

	// PingURL is the server liveness endpoint.
	PingURL = "/server/1/status/ping"
)

// StatusCode is the LEAP header status, e.g. "200 OK" or "204 NoContent".
type StatusCode string

// OK reports whether the status is in the 2xx success range.
func (s StatusCode) OK() bool {
	return strings.HasPrefix(string(s), "2")
}

// Header is the routing and correlation portion of a LEAP message.
type Header struct {
	StatusCode      StatusCode `json:"StatusCode,omitempty"`
	URL             string     `json:"Url"`
	ClientTag       string     `json:"ClientTag,omitempty"`
	MessageBodyType string     `json:"MessageBodyType,omitempty"`
}

// Message is one LEAP communique: a request, a tagged response, or an
// unsolicited notification (no ClientTag).
type Message struct {
	CommuniqueType CommuniqueType  `json:"CommuniqueType"`
	Header         Header          `json:"Header"`
	Body           json.RawMessage `json:"Body,omitempty"`
}

// DecodeBody unmarshals the message body into v.
func (m Message) DecodeBody(v any) error {
	return json.Unmarshal(m.Body, v)
}

// Href is a reference to another LEAP resource.
type Href struct {
	Href string `json:"href"`
}

// SerialNumber is a device serial. Bridges report serials as bare JSON
// numbers, but some firmware versions quote them; both forms are accepted.
type SerialNumber string

// UnmarshalJSON accepts both quoted and unquoted serials.
func (s *SerialNumber) UnmarshalJSON(data []byte) error {
	str := strings.TrimSpace(string(data))
	if str == "null" {
		*s = ""
		return nil
	}
	if len(str) >= 2 && str[0] == '"' {
		unquoted, err := strconv.Unquote(str)
		if err != nil {
			return err
		}
		*s = SerialNumber(unquoted)
		return nil
	}
	*s = SerialNumber(str)
	return nil
}

// String returns the serial as a plain string.
func (s SerialNumber) String() string {
	return string(s)
}

// DeviceRecord is one physical end device as reported by a bridge's
// inventory. DeviceType is an open set; unrecognised values must be
// tolerated by consumers.
type DeviceRecord struct {
	Href               string       `json:"href"`
	Name               string       `json:"Name"`
	DeviceType         string       `json:"DeviceType"`
	SerialNumber       SerialNumber `json:"SerialNumber"`
	ModelNumber        string       `json:"ModelNumber,omitempty"`
	FullyQualifiedName []string     `json:"FullyQualifiedName,omitempty"`
	LocalZones         []Href       `json:"LocalZones,omitempty"`
	Buttons            []Href       `json:"ButtonGroups,omitempty"`
}

// QualifiedName returns the human-readable device name, preferring the
// ordered name segments over the bare Name.
func (d DeviceRecord) QualifiedName() string {
	if len(d.FullyQualifiedName) > 0 {
		return strings.Join(d.FullyQualifiedName, " ")
	}
	return d.Name
}

// MultipleDeviceDefinition is the body of a DeviceListURL read response.
type MultipleDeviceDefinition struct {
	Devices []DeviceRecord `json:"Devices"`
}

// DeviceHeardEvent is the body of a DeviceHeardURL notification.
type DeviceHeardEvent struct {
	DeviceHeard DeviceHeard `json:"DeviceHeard"`
}

// DeviceHeard describes the device a bridge just heard on the radio.
type DeviceHeard struct {
	DiscoveryMechanism string       `json:"DiscoveryMechanism"`
	SerialNumber       SerialNumber `json:"SerialNumber"`
	DeviceType         string       `json:"DeviceType"`
	ModelNumber        string       `json:"ModelNumber"`
}

// ButtonAction is a raw button transition reported by a bridge.
type ButtonAction string

// ButtonAction constants.
const (
	ButtonActionPress   ButtonAction = "Press"
	ButtonActionRelease ButtonAction = "Release"
)

// ButtonStatusEvent is the body of a button status notification.
type ButtonStatusEvent struct {
	Button      Href `json:"Button"`
	ButtonEvent struct {
		EventType ButtonAction `json:"EventType"`
	} `json:"ButtonEvent"`
}

// ZoneStatus reports the current level and tilt of one zone.
type ZoneStatus struct {
	Href  string `json:"href"`
	Zone  Href   `json:"Zone"`
	Level int    `json:"Level"`
	Tilt  int    `json:"Tilt"`
}

// OneZoneStatus is the body of a zone status response or notification.
type OneZoneStatus struct {
	ZoneStatus ZoneStatus `json:"ZoneStatus"`
}

// OccupancyState is the reported state of an occupancy group.
type OccupancyState string

// OccupancyState constants.
const (
	OccupancyOccupied   OccupancyState = "Occupied"
	OccupancyUnoccupied OccupancyState = "Unoccupied"
	OccupancyUnknown    OccupancyState = "Unknown"
)

// OccupancyGroupStatus is the status of one occupancy group.
type OccupancyGroupStatus struct {
	OccupancyGroup  Href           `json:"OccupancyGroup"`
	OccupancyStatus OccupancyState `json:"OccupancyStatus"`
}

// MultipleOccupancyGroupStatus is the body of an occupancy status
// response or notification.
type MultipleOccupancyGroupStatus struct {
	OccupancyGroupStatuses []OccupancyGroupStatus `json:"OccupancyGroupStatus"`
}

// GoToTilt builds the command body that tilts a blind zone to the given
// level (0-100).
func GoToTilt(tilt int) any {
	type tiltParams struct {
		Tilt int `json:"Tilt"`
	}
	type command struct {
		CommandType    string     `json:"CommandType"`
		TiltParameters tiltParams `json:"TiltParameters"`
	}
	return struct {
		Command command `json:"Command"`
	}{
		Command: command{
			CommandType:    "GoToTilt",
			TiltParameters: tiltParams{Tilt: tilt},
		},
	}
}

// ZoneStatusURL returns the status subscription URL for a zone href.
func ZoneStatusURL(zone string) string {
	return zone + "/status"
}

// ZoneCommandURL returns the command processor URL for a zone href.
func ZoneCommandURL(zone string) string {
	return zone + "/commandprocessor"
}

// ButtonStatusURL returns the status event subscription URL for a button
// group href.
func ButtonStatusURL(buttonGroup string) string {
	return buttonGroup + "/buttonevent"
}
