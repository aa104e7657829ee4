package i1

import (
	"encoding/binary"
	"math"
)

// Uplink encoders build sensor-side frames. The server never sends
// these; they exist for the sensor simulator and for exercising the
// decode path against real bytes.

// EncodeWeather builds an uplink weather frame.
func EncodeWeather(cmdID string, frameNo byte, p WeatherPayload) []byte {
	content := make([]byte, 0, weatherPayloadLen)
	content = appendASCII(content, p.Component)
	content = binary.LittleEndian.AppendUint32(content, p.TimeStamp)
	content = appendFloat32(content, p.AvgWindSpeed)
	content = binary.LittleEndian.AppendUint16(content, p.AvgWindDirection)
	content = appendFloat32(content, p.MaxWindSpeed)
	content = appendFloat32(content, p.ExtremeWindSpeed)
	content = appendFloat32(content, p.StandardWindSpeed)
	content = appendFloat32(content, p.AirTemperature)
	content = binary.LittleEndian.AppendUint16(content, uint16(p.Humidity*10))
	content = appendFloat32(content, p.AirPressure)
	content = appendFloat32(content, p.Precipitation)
	content = appendFloat32(content, p.PrecipitationIntensity)
	content = binary.LittleEndian.AppendUint16(content, p.RadiationIntensity)
	return encodeUplink(cmdID, PacketTypeWeather, frameNo, content)
}

// EncodeTowerTilt builds an uplink tower-tilt frame.
func EncodeTowerTilt(cmdID string, frameNo byte, p TowerTiltPayload) []byte {
	content := make([]byte, 0, towerTiltPayloadLen)
	content = appendASCII(content, p.Component)
	content = binary.LittleEndian.AppendUint32(content, p.TimeStamp)
	content = appendFloat32(content, p.Inclination)
	content = appendFloat32(content, p.InclinationX)
	content = appendFloat32(content, p.InclinationY)
	content = appendFloat32(content, p.AngleX)
	content = appendFloat32(content, p.AngleY)
	return encodeUplink(cmdID, PacketTypeTowerTilt, frameNo, content)
}

// EncodeLineTemperature builds an uplink conductor-temperature frame.
func EncodeLineTemperature(cmdID string, frameNo byte, p LineTemperaturePayload) []byte {
	content := make([]byte, 0, lineTemperaturePayloadLen)
	content = appendASCII(content, p.Component)
	content = append(content, p.UnitSum, p.UnitNo)
	content = binary.LittleEndian.AppendUint32(content, p.TimeStamp)
	content = appendFloat32(content, p.LineTemperature)
	return encodeUplink(cmdID, PacketTypeLineTemperature, frameNo, content)
}

// EncodeHeartbeat builds an uplink heartbeat frame. The device identity
// travels in the frame CmdID.
func EncodeHeartbeat(cmdID string, frameNo byte, p HeartbeatPayload) []byte {
	content := make([]byte, 0, heartbeatPayloadLen)
	content = binary.LittleEndian.AppendUint32(content, p.ClockTimeStamp)
	content = appendFloat32(content, p.BatteryVoltage)
	content = appendFloat32(content, p.OperationTemperature)
	content = appendFloat32(content, p.BatteryCapacity)
	content = append(content, p.FloatingCharge)
	content = binary.LittleEndian.AppendUint32(content, p.TotalWorkingTime)
	content = binary.LittleEndian.AppendUint32(content, p.WorkingTime)
	content = append(content, p.ConnectionState)
	content = binary.LittleEndian.AppendUint32(content, p.SendFlow)
	content = binary.LittleEndian.AppendUint32(content, p.ReceiveFlow)
	content = append(content, p.ProtocolVersion[:]...)
	return encodeUplink(cmdID, PacketTypeHeartbeat, frameNo, content)
}

func encodeUplink(cmdID string, packetType, frameNo byte, content []byte) []byte {
	return encodeFrame(cmdID, FrameTypeUplink, packetType, frameNo, content)
}

func appendASCII(b []byte, s string) []byte {
	var id [CmdIDLen]byte
	copy(id[:], s)
	return append(b, id[:]...)
}

func appendFloat32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}
