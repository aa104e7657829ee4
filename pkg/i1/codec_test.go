package i1

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/linescope/linescope/pkg/crc16"
)

// buildFrame assembles a syntactically valid uplink frame around content.
func buildFrame(t *testing.T, cmdID string, packetType, frameNo byte, content []byte) []byte {
	t.Helper()

	frame := make([]byte, 0, Overhead+len(content))
	frame = append(frame, SyncByte0, SyncByte1)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(content)))

	var id [CmdIDLen]byte
	copy(id[:], cmdID)
	frame = append(frame, id[:]...)

	frame = append(frame, FrameTypeUplink, packetType, frameNo)
	frame = append(frame, content...)
	frame = binary.LittleEndian.AppendUint16(frame, crc16.Checksum(frame[2:]))
	frame = append(frame, EndByte)
	return frame
}

type weatherFields struct {
	component        string
	timeStamp        uint32
	avgWindSpeed     float32
	avgWindDirection uint16
	maxWindSpeed     float32
	extremeWindSpeed float32
	standardSpeed    float32
	airTemperature   float32
	humidityTenths   uint16
	airPressure      float32
	precipitation    float32
	precipIntensity  float32
	radiation        uint16
}

func weatherContent(f weatherFields) []byte {
	var b []byte
	var id [CmdIDLen]byte
	copy(id[:], f.component)
	b = append(b, id[:]...)
	b = binary.LittleEndian.AppendUint32(b, f.timeStamp)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.avgWindSpeed))
	b = binary.LittleEndian.AppendUint16(b, f.avgWindDirection)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.maxWindSpeed))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.extremeWindSpeed))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.standardSpeed))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.airTemperature))
	b = binary.LittleEndian.AppendUint16(b, f.humidityTenths)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.airPressure))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.precipitation))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.precipIntensity))
	b = binary.LittleEndian.AppendUint16(b, f.radiation)
	return b
}

func testWeatherFrame(t *testing.T) []byte {
	t.Helper()
	return buildFrame(t, "WS-001", PacketTypeWeather, 7, weatherContent(weatherFields{
		component:        "WS-001",
		timeStamp:        1700000000,
		avgWindSpeed:     5.2,
		avgWindDirection: 135,
		maxWindSpeed:     9.8,
		extremeWindSpeed: 12.4,
		standardSpeed:    4.7,
		airTemperature:   21.5,
		humidityTenths:   680,
		airPressure:      1012.6,
		precipitation:    0.4,
		precipIntensity:  0.1,
		radiation:        820,
	}))
}

func TestDecodeWeatherFrame(t *testing.T) {
	frame := testWeatherFrame(t)
	if len(frame) != 90 {
		t.Fatalf("weather frame length = %d, want 90", len(frame))
	}

	parsed, err := DecodeUplink(frame)
	if err != nil {
		t.Fatalf("DecodeUplink: %v", err)
	}
	if parsed.CmdID != "WS-001" {
		t.Errorf("CmdID = %q, want WS-001", parsed.CmdID)
	}
	if parsed.FrameNo != 7 {
		t.Errorf("FrameNo = %d, want 7", parsed.FrameNo)
	}
	if parsed.PacketType != PacketTypeWeather {
		t.Errorf("PacketType = 0x%02X, want 0x31", parsed.PacketType)
	}

	w, ok := parsed.Payload.(WeatherPayload)
	if !ok {
		t.Fatalf("payload is %T, want WeatherPayload", parsed.Payload)
	}
	if w.Component != "WS-001" {
		t.Errorf("Component = %q, want WS-001", w.Component)
	}
	if w.TimeStamp != 1700000000 {
		t.Errorf("TimeStamp = %d, want 1700000000", w.TimeStamp)
	}
	if w.AvgWindDirection != 135 {
		t.Errorf("AvgWindDirection = %d, want 135", w.AvgWindDirection)
	}
	if math.Abs(float64(w.Humidity)-68.0) > 1e-6 {
		t.Errorf("Humidity = %v, want 68.0", w.Humidity)
	}
	if math.Abs(float64(w.AvgWindSpeed)-5.2) > 1e-5 {
		t.Errorf("AvgWindSpeed = %v, want 5.2", w.AvgWindSpeed)
	}
	if w.RadiationIntensity != 820 {
		t.Errorf("RadiationIntensity = %d, want 820", w.RadiationIntensity)
	}
}

func TestDecodeTowerTiltFrame(t *testing.T) {
	var content []byte
	var id [CmdIDLen]byte
	copy(id[:], "TT-100")
	content = append(content, id[:]...)
	content = binary.LittleEndian.AppendUint32(content, 1700000100)
	for _, v := range []float32{1.5, 0.8, 1.2, -0.3, 0.6} {
		content = binary.LittleEndian.AppendUint32(content, math.Float32bits(v))
	}

	parsed, err := DecodeUplink(buildFrame(t, "TT-100", PacketTypeTowerTilt, 3, content))
	if err != nil {
		t.Fatalf("DecodeUplink: %v", err)
	}
	tilt, ok := parsed.Payload.(TowerTiltPayload)
	if !ok {
		t.Fatalf("payload is %T, want TowerTiltPayload", parsed.Payload)
	}
	if tilt.Component != "TT-100" || tilt.TimeStamp != 1700000100 {
		t.Errorf("unexpected tilt header fields: %+v", tilt)
	}
	if math.Abs(float64(tilt.AngleX)+0.3) > 1e-6 {
		t.Errorf("AngleX = %v, want -0.3", tilt.AngleX)
	}
}

func TestDecodeLineTemperatureFrame(t *testing.T) {
	var content []byte
	var id [CmdIDLen]byte
	copy(id[:], "LT-501")
	content = append(content, id[:]...)
	content = append(content, 4, 2)
	content = binary.LittleEndian.AppendUint32(content, 1700000200)
	content = binary.LittleEndian.AppendUint32(content, math.Float32bits(85.5))

	parsed, err := DecodeUplink(buildFrame(t, "LT-501", PacketTypeLineTemperature, 9, content))
	if err != nil {
		t.Fatalf("DecodeUplink: %v", err)
	}
	lt, ok := parsed.Payload.(LineTemperaturePayload)
	if !ok {
		t.Fatalf("payload is %T, want LineTemperaturePayload", parsed.Payload)
	}
	if lt.UnitSum != 4 || lt.UnitNo != 2 {
		t.Errorf("unit fields = (%d,%d), want (4,2)", lt.UnitSum, lt.UnitNo)
	}
	if math.Abs(float64(lt.LineTemperature)-85.5) > 1e-6 {
		t.Errorf("LineTemperature = %v, want 85.5", lt.LineTemperature)
	}
}

func TestDecodeHeartbeatFrame(t *testing.T) {
	var content []byte
	content = binary.LittleEndian.AppendUint32(content, 1700000300)
	for _, v := range []float32{12.6, 35.0, 87.5} {
		content = binary.LittleEndian.AppendUint32(content, math.Float32bits(v))
	}
	content = append(content, 1)
	content = binary.LittleEndian.AppendUint32(content, 360000)
	content = binary.LittleEndian.AppendUint32(content, 7200)
	content = append(content, 2)
	content = binary.LittleEndian.AppendUint32(content, 1024)
	content = binary.LittleEndian.AppendUint32(content, 2048)
	content = append(content, 1, 2, 0, 5)

	parsed, err := DecodeUplink(buildFrame(t, "DEV-42", PacketTypeHeartbeat, 1, content))
	if err != nil {
		t.Fatalf("DecodeUplink: %v", err)
	}
	hb, ok := parsed.Payload.(HeartbeatPayload)
	if !ok {
		t.Fatalf("payload is %T, want HeartbeatPayload", parsed.Payload)
	}
	if hb.CmdID != "DEV-42" {
		t.Errorf("CmdID = %q, want DEV-42", hb.CmdID)
	}
	if hb.FloatingCharge != 1 || hb.ConnectionState != 2 {
		t.Errorf("state fields = (%d,%d), want (1,2)", hb.FloatingCharge, hb.ConnectionState)
	}
	if hb.ProtocolVersion != [4]byte{1, 2, 0, 5} {
		t.Errorf("ProtocolVersion = %v, want [1 2 0 5]", hb.ProtocolVersion)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := testWeatherFrame(t)

	short := make([]byte, 10)
	copy(short, valid)

	badSync := append([]byte(nil), valid...)
	badSync[0] = 0x00

	badLength := append([]byte(nil), valid...)
	badLength[2]++ // declared length no longer matches the byte count
	// recompute CRC so only the length check fires
	crc := crc16.Checksum(badLength[2 : len(badLength)-3])
	binary.LittleEndian.PutUint16(badLength[len(badLength)-3:len(badLength)-1], crc)

	badEnd := append([]byte(nil), valid...)
	badEnd[len(badEnd)-1] = 0x00

	badCRC := append([]byte(nil), valid...)
	badCRC[len(badCRC)-2] ^= 0xFF

	unsupported := buildFrame(t, "WS-001", 0x77, 7, []byte{0x01})

	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"short frame", short, ErrShortFrame},
		{"bad sync", badSync, ErrBadSync},
		{"length mismatch", badLength, ErrLengthMismatch},
		{"bad end", badEnd, ErrBadEnd},
		{"crc mismatch", badCRC, ErrCRCMismatch},
		{"unsupported packet type", unsupported, ErrUnsupportedPacketType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUplink(tt.frame)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeUplink error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	// Correctly framed and checksummed, but the content is shorter than
	// the weather schema requires.
	frame := buildFrame(t, "WS-001", PacketTypeWeather, 2, make([]byte, 20))
	_, err := DecodeUplink(frame)
	if !errors.Is(err, ErrPayloadTruncated) {
		t.Errorf("DecodeUplink error = %v, want ErrPayloadTruncated", err)
	}
}

func TestLengthMismatchBeforeCRC(t *testing.T) {
	// A frame with a wrong declared length must fail the length check,
	// not the CRC check.
	frame := append([]byte(nil), testWeatherFrame(t)...)
	frame[2] += 2
	_, err := DecodeUplink(frame)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("DecodeUplink error = %v, want ErrLengthMismatch", err)
	}
}

func TestEncodeAckRoundTrip(t *testing.T) {
	for _, pt := range []byte{PacketTypeWeather, PacketTypeTowerTilt, PacketTypeLineTemperature, PacketTypeHeartbeat} {
		t.Run(PacketTypeName(pt), func(t *testing.T) {
			ack := EncodeAck("WS-001", pt, 7, true)

			hdr, ok := PeekHeader(ack)
			if !ok {
				t.Fatal("PeekHeader failed on encoded ACK")
			}
			if hdr.CmdID != "WS-001" {
				t.Errorf("CmdID = %q, want WS-001", hdr.CmdID)
			}
			if hdr.FrameType != FrameTypeDownlink {
				t.Errorf("FrameType = 0x%02X, want 0x02", hdr.FrameType)
			}
			if hdr.PacketType != AckType(pt) {
				t.Errorf("PacketType = 0x%02X, want 0x%02X", hdr.PacketType, AckType(pt))
			}
			if hdr.FrameNo != 7 {
				t.Errorf("FrameNo = %d, want 7", hdr.FrameNo)
			}
			if hdr.PacketLength != len(ack)-Overhead {
				t.Errorf("PacketLength = %d, want %d", hdr.PacketLength, len(ack)-Overhead)
			}

			// The ACK must itself be a well-formed frame: sync, end byte
			// and CRC all verify.
			if ack[len(ack)-1] != EndByte {
				t.Error("ACK missing end byte")
			}
			wantCRC := binary.LittleEndian.Uint16(ack[len(ack)-3 : len(ack)-1])
			if got := crc16.Checksum(ack[2 : len(ack)-3]); got != wantCRC {
				t.Errorf("ACK CRC = 0x%04X, want 0x%04X", got, wantCRC)
			}
		})
	}
}

func TestEncodeAckWirePrefix(t *testing.T) {
	ack := EncodeAck("WS-001", PacketTypeWeather, 7, true)

	wantPrefix := []byte{0x5A, 0xA5, 0x01, 0x00}
	if !bytes.Equal(ack[:4], wantPrefix) {
		t.Errorf("ACK prefix = % X, want % X", ack[:4], wantPrefix)
	}
	if ack[21] != FrameTypeDownlink || ack[22] != PacketTypeWeatherAck || ack[23] != 7 {
		t.Errorf("ACK header bytes = % X, want 02 B1 07", ack[21:24])
	}
	if ack[24] != AckStatusOK {
		t.Errorf("ACK status = 0x%02X, want 0xFF", ack[24])
	}
	if len(ack) != Overhead+1 {
		t.Errorf("ACK length = %d, want %d", len(ack), Overhead+1)
	}
}

func TestEncodeHeartbeatAckContent(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	ack := EncodeHeartbeatAck("DEV-42", 5, false, 0x01, clock)

	if len(ack) != Overhead+6 {
		t.Fatalf("heartbeat ACK length = %d, want %d", len(ack), Overhead+6)
	}
	if ack[22] != PacketTypeHeartbeatAck {
		t.Errorf("PacketType = 0x%02X, want 0xE1", ack[22])
	}
	if ack[24] != AckStatusFailed {
		t.Errorf("status = 0x%02X, want 0x00", ack[24])
	}
	if ack[25] != 0x01 {
		t.Errorf("mode = 0x%02X, want 0x01", ack[25])
	}
	if got := binary.LittleEndian.Uint32(ack[26:30]); got != 1700000000 {
		t.Errorf("clock = %d, want 1700000000", got)
	}
}

func TestAckTypeFallback(t *testing.T) {
	if got := AckType(0x77); got != 0x77 {
		t.Errorf("AckType(0x77) = 0x%02X, want echo", got)
	}
	ack := EncodeAck("X", 0x77, 1, false)
	if ack[22] != 0x77 {
		t.Errorf("unknown-type ACK PacketType = 0x%02X, want 0x77", ack[22])
	}
}

func TestDecodeASCIIStripsPaddingAndNonASCII(t *testing.T) {
	raw := []byte{'A', 'B', 0xC3, 'C', 0x00, 0x00}
	if got := decodeASCII(raw); got != "ABC" {
		t.Errorf("decodeASCII = %q, want ABC", got)
	}
}
