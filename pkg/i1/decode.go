package i1

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/linescope/linescope/pkg/crc16"
)

// Expected Content sizes per packet type.
const (
	weatherPayloadLen         = CmdIDLen + 4 + 4 + 2 + 4 + 4 + 4 + 4 + 2 + 4 + 4 + 4 + 2
	towerTiltPayloadLen       = CmdIDLen + 4 + 4 + 4 + 4 + 4 + 4
	lineTemperaturePayloadLen = CmdIDLen + 1 + 1 + 4 + 4
	heartbeatPayloadLen       = 4 + 4 + 4 + 4 + 1 + 4 + 4 + 1 + 4 + 4 + 4
)

// PeekHeader reads the fixed-position header fields without validating
// the frame. It fails only when the buffer is shorter than the header.
func PeekHeader(frame []byte) (Header, bool) {
	if len(frame) < HeaderLen {
		return Header{}, false
	}
	return Header{
		PacketLength: int(binary.LittleEndian.Uint16(frame[2:4])),
		CmdID:        decodeASCII(frame[4 : 4+CmdIDLen]),
		FrameType:    frame[21],
		PacketType:   frame[22],
		FrameNo:      frame[23],
	}, true
}

// DecodeUplink validates frame and decodes its Content into a typed
// payload. Validation failures map onto the sentinel errors in errors.go;
// each check runs in a fixed order so a frame fails for exactly one
// reason.
func DecodeUplink(frame []byte) (*ParsedFrame, error) {
	if len(frame) < Overhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}
	if frame[0] != SyncByte0 || frame[1] != SyncByte1 {
		return nil, fmt.Errorf("%w: got % X", ErrBadSync, frame[:2])
	}

	packetLength := int(binary.LittleEndian.Uint16(frame[2:4]))
	if expected := Overhead + packetLength; len(frame) != expected {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(frame), expected)
	}
	if frame[len(frame)-1] != EndByte {
		return nil, fmt.Errorf("%w: got 0x%02X", ErrBadEnd, frame[len(frame)-1])
	}

	wantCRC := binary.LittleEndian.Uint16(frame[len(frame)-3 : len(frame)-1])
	if gotCRC := crc16.Checksum(frame[2 : len(frame)-3]); gotCRC != wantCRC {
		return nil, fmt.Errorf("%w: frame=0x%04X computed=0x%04X", ErrCRCMismatch, wantCRC, gotCRC)
	}

	hdr, _ := PeekHeader(frame)
	content := frame[HeaderLen : HeaderLen+packetLength]

	var payload Payload
	var err error
	switch hdr.PacketType {
	case PacketTypeWeather:
		payload, err = decodeWeather(content)
	case PacketTypeTowerTilt:
		payload, err = decodeTowerTilt(content)
	case PacketTypeLineTemperature:
		payload, err = decodeLineTemperature(content)
	case PacketTypeHeartbeat:
		payload, err = decodeHeartbeat(content, hdr.CmdID)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedPacketType, hdr.PacketType)
	}
	if err != nil {
		return nil, err
	}

	return &ParsedFrame{Header: hdr, Payload: payload, Raw: frame}, nil
}

func decodeWeather(content []byte) (WeatherPayload, error) {
	if len(content) < weatherPayloadLen {
		return WeatherPayload{}, fmt.Errorf("%w: weather needs %d bytes, got %d",
			ErrPayloadTruncated, weatherPayloadLen, len(content))
	}

	r := reader{buf: content}
	p := WeatherPayload{
		Component:         r.ascii(CmdIDLen),
		TimeStamp:         r.uint32(),
		AvgWindSpeed:      r.float32(),
		AvgWindDirection:  r.uint16(),
		MaxWindSpeed:      r.float32(),
		ExtremeWindSpeed:  r.float32(),
		StandardWindSpeed: r.float32(),
		AirTemperature:    r.float32(),
	}
	// Humidity arrives as tenths of %RH.
	p.Humidity = float32(r.uint16()) / 10.0
	p.AirPressure = r.float32()
	p.Precipitation = r.float32()
	p.PrecipitationIntensity = r.float32()
	p.RadiationIntensity = r.uint16()
	return p, nil
}

func decodeTowerTilt(content []byte) (TowerTiltPayload, error) {
	if len(content) < towerTiltPayloadLen {
		return TowerTiltPayload{}, fmt.Errorf("%w: tower-tilt needs %d bytes, got %d",
			ErrPayloadTruncated, towerTiltPayloadLen, len(content))
	}

	r := reader{buf: content}
	return TowerTiltPayload{
		Component:    r.ascii(CmdIDLen),
		TimeStamp:    r.uint32(),
		Inclination:  r.float32(),
		InclinationX: r.float32(),
		InclinationY: r.float32(),
		AngleX:       r.float32(),
		AngleY:       r.float32(),
	}, nil
}

func decodeLineTemperature(content []byte) (LineTemperaturePayload, error) {
	if len(content) < lineTemperaturePayloadLen {
		return LineTemperaturePayload{}, fmt.Errorf("%w: line-temperature needs %d bytes, got %d",
			ErrPayloadTruncated, lineTemperaturePayloadLen, len(content))
	}

	r := reader{buf: content}
	return LineTemperaturePayload{
		Component:       r.ascii(CmdIDLen),
		UnitSum:         r.uint8(),
		UnitNo:          r.uint8(),
		TimeStamp:       r.uint32(),
		LineTemperature: r.float32(),
	}, nil
}

func decodeHeartbeat(content []byte, cmdID string) (HeartbeatPayload, error) {
	if len(content) < heartbeatPayloadLen {
		return HeartbeatPayload{}, fmt.Errorf("%w: heartbeat needs %d bytes, got %d",
			ErrPayloadTruncated, heartbeatPayloadLen, len(content))
	}

	r := reader{buf: content}
	p := HeartbeatPayload{
		CmdID:                cmdID,
		ClockTimeStamp:       r.uint32(),
		BatteryVoltage:       r.float32(),
		OperationTemperature: r.float32(),
		BatteryCapacity:      r.float32(),
		FloatingCharge:       r.uint8(),
		TotalWorkingTime:     r.uint32(),
		WorkingTime:          r.uint32(),
		ConnectionState:      r.uint8(),
		SendFlow:             r.uint32(),
		ReceiveFlow:          r.uint32(),
	}
	copy(p.ProtocolVersion[:], r.bytes(4))
	return p, nil
}

// reader walks a payload buffer. Callers length-check the buffer up
// front, so the accessors never run past the end.
type reader struct {
	buf []byte
	off int
}

func (r *reader) bytes(n int) []byte {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint8() uint8 { return r.bytes(1)[0] }

func (r *reader) uint16() uint16 { return binary.LittleEndian.Uint16(r.bytes(2)) }

func (r *reader) uint32() uint32 { return binary.LittleEndian.Uint32(r.bytes(4)) }

// float32 takes the IEEE-754 bits as received; NaN and Inf pass through.
func (r *reader) float32() float32 { return math.Float32frombits(r.uint32()) }

func (r *reader) ascii(n int) string { return decodeASCII(r.bytes(n)) }

// decodeASCII strips trailing zero padding and drops non-ASCII bytes.
func decodeASCII(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	var b strings.Builder
	for _, c := range raw[:end] {
		if c < 0x80 {
			b.WriteByte(c)
		}
	}
	return b.String()
}
