// Package i1 implements the I1 sensor uplink protocol: a sync-framed,
// CRC-protected, little-endian binary link between power-line monitoring
// nodes and this server. The package covers frame extraction from a byte
// stream, uplink decoding into typed payloads, and downlink ACK encoding.
package i1

import "fmt"

// Frame layout:
//
//	Sync(2) PacketLength(2,LE) CmdID(17,ASCII) FrameType(1) PacketType(1)
//	FrameNo(1) Content(PacketLength) CRC16(2,LE) End(1)
//
// CRC16 is Modbus-CRC16 over everything between Sync and the CRC field.
const (
	SyncByte0 = 0x5A
	SyncByte1 = 0xA5
	EndByte   = 0x96

	CmdIDLen = 17

	// HeaderLen is the fixed prefix before Content.
	HeaderLen = 2 + 2 + CmdIDLen + 1 + 1 + 1

	// Overhead is the on-wire size of a frame with empty Content.
	Overhead = HeaderLen + 2 + 1

	// DefaultMaxFrameSize bounds the declared frame length accepted by the
	// extractor. Larger declared lengths are treated as corruption.
	DefaultMaxFrameSize = 4096
)

// Frame types.
const (
	FrameTypeUplink   = 0x01
	FrameTypeDownlink = 0x02
)

// Uplink packet types.
const (
	PacketTypeWeather         = 0x31
	PacketTypeTowerTilt       = 0x32
	PacketTypeLineTemperature = 0x33
	PacketTypeHeartbeat       = 0x61
)

// Downlink (ACK) packet types.
const (
	PacketTypeWeatherAck         = 0xB1
	PacketTypeTowerTiltAck       = 0xB2
	PacketTypeLineTemperatureAck = 0xB3
	PacketTypeHeartbeatAck       = 0xE1
)

// ACK status bytes.
const (
	AckStatusOK     = 0xFF
	AckStatusFailed = 0x00
)

// ackTypeMap maps an uplink packet type to its ACK packet type.
var ackTypeMap = map[byte]byte{
	PacketTypeWeather:         PacketTypeWeatherAck,
	PacketTypeTowerTilt:       PacketTypeTowerTiltAck,
	PacketTypeLineTemperature: PacketTypeLineTemperatureAck,
	PacketTypeHeartbeat:       PacketTypeHeartbeatAck,
}

// AckType returns the downlink packet type that acknowledges uplink type
// pt. Unknown types are echoed back unchanged so a peer still gets a
// correlatable failure ACK.
func AckType(pt byte) byte {
	if ack, ok := ackTypeMap[pt]; ok {
		return ack
	}
	return pt
}

// Header holds the fixed-position fields of a frame, readable without a
// full decode. It is the ACK target when payload decoding fails.
type Header struct {
	PacketLength int
	CmdID        string
	FrameType    byte
	PacketType   byte
	FrameNo      byte
}

// Payload is the tagged sum of uplink payload variants.
type Payload interface {
	// ComponentID returns the logical sensor identifier the payload
	// belongs to. Heartbeats identify themselves via the frame CmdID.
	ComponentID() string
}

// WeatherPayload is the 59-byte weather observation (packet type 0x31).
// Humidity has already been scaled from tenths of %RH.
type WeatherPayload struct {
	Component              string
	TimeStamp              uint32
	AvgWindSpeed           float32
	AvgWindDirection       uint16
	MaxWindSpeed           float32
	ExtremeWindSpeed       float32
	StandardWindSpeed      float32
	AirTemperature         float32
	Humidity               float32
	AirPressure            float32
	Precipitation          float32
	PrecipitationIntensity float32
	RadiationIntensity     uint16
}

func (p WeatherPayload) ComponentID() string { return p.Component }

// TowerTiltPayload is the 41-byte tower inclination report (0x32).
type TowerTiltPayload struct {
	Component    string
	TimeStamp    uint32
	Inclination  float32
	InclinationX float32
	InclinationY float32
	AngleX       float32
	AngleY       float32
}

func (p TowerTiltPayload) ComponentID() string { return p.Component }

// LineTemperaturePayload is one conductor-temperature unit report (0x33).
type LineTemperaturePayload struct {
	Component       string
	UnitSum         uint8
	UnitNo          uint8
	TimeStamp       uint32
	LineTemperature float32
}

func (p LineTemperaturePayload) ComponentID() string { return p.Component }

// HeartbeatPayload is the 38-byte device heartbeat (0x61). CmdID carries
// the device identity; ProtocolVersion is opaque to this server.
type HeartbeatPayload struct {
	CmdID                string
	ClockTimeStamp       uint32
	BatteryVoltage       float32
	OperationTemperature float32
	BatteryCapacity      float32
	FloatingCharge       uint8
	TotalWorkingTime     uint32
	WorkingTime          uint32
	ConnectionState      uint8
	SendFlow             uint32
	ReceiveFlow          uint32
	ProtocolVersion      [4]byte
}

func (p HeartbeatPayload) ComponentID() string { return p.CmdID }

// ParsedFrame is a fully validated uplink frame.
type ParsedFrame struct {
	Header
	Payload Payload
	Raw     []byte
}

// PacketTypeName returns a short human-readable name for logging.
func PacketTypeName(pt byte) string {
	switch pt {
	case PacketTypeWeather:
		return "weather"
	case PacketTypeTowerTilt:
		return "tower-tilt"
	case PacketTypeLineTemperature:
		return "line-temperature"
	case PacketTypeHeartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("unknown(0x%02X)", pt)
	}
}
