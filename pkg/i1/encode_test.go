package i1

import (
	"testing"
)

func TestUplinkEncodeDecodeRoundTrip(t *testing.T) {
	weather := WeatherPayload{
		Component:          "WS-001",
		TimeStamp:          1700000000,
		AvgWindSpeed:       5.2,
		AvgWindDirection:   270,
		MaxWindSpeed:       9.8,
		ExtremeWindSpeed:   12.4,
		StandardWindSpeed:  4.7,
		AirTemperature:     -3.5,
		Humidity:           68.0,
		AirPressure:        1012.6,
		RadiationIntensity: 820,
	}
	tilt := TowerTiltPayload{
		Component:   "TT-100",
		TimeStamp:   1700000100,
		Inclination: 2.25,
		AngleY:      -1.5,
	}
	lineTemp := LineTemperaturePayload{
		Component:       "LT-501",
		UnitSum:         4,
		UnitNo:          2,
		TimeStamp:       1700000200,
		LineTemperature: 85.5,
	}
	heartbeat := HeartbeatPayload{
		CmdID:           "DEV-42",
		ClockTimeStamp:  1700000300,
		BatteryVoltage:  12.6,
		ConnectionState: 1,
		SendFlow:        4096,
		ProtocolVersion: [4]byte{1, 2, 0, 5},
	}

	tests := []struct {
		name       string
		frame      []byte
		packetType byte
		check      func(t *testing.T, p Payload)
	}{
		{"weather", EncodeWeather("WS-001", 7, weather), PacketTypeWeather, func(t *testing.T, p Payload) {
			got, ok := p.(WeatherPayload)
			if !ok || got != weather {
				t.Errorf("decoded = %+v, want %+v", p, weather)
			}
		}},
		{"tower tilt", EncodeTowerTilt("TT-100", 8, tilt), PacketTypeTowerTilt, func(t *testing.T, p Payload) {
			got, ok := p.(TowerTiltPayload)
			if !ok || got != tilt {
				t.Errorf("decoded = %+v, want %+v", p, tilt)
			}
		}},
		{"line temperature", EncodeLineTemperature("LT-501", 9, lineTemp), PacketTypeLineTemperature, func(t *testing.T, p Payload) {
			got, ok := p.(LineTemperaturePayload)
			if !ok || got != lineTemp {
				t.Errorf("decoded = %+v, want %+v", p, lineTemp)
			}
		}},
		{"heartbeat", EncodeHeartbeat("DEV-42", 10, heartbeat), PacketTypeHeartbeat, func(t *testing.T, p Payload) {
			got, ok := p.(HeartbeatPayload)
			if !ok || got != heartbeat {
				t.Errorf("decoded = %+v, want %+v", p, heartbeat)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := DecodeUplink(tt.frame)
			if err != nil {
				t.Fatalf("DecodeUplink: %v", err)
			}
			if parsed.PacketType != tt.packetType {
				t.Errorf("PacketType = 0x%02X, want 0x%02X", parsed.PacketType, tt.packetType)
			}
			if parsed.FrameType != FrameTypeUplink {
				t.Errorf("FrameType = 0x%02X, want uplink", parsed.FrameType)
			}
			tt.check(t, parsed.Payload)
		})
	}
}
