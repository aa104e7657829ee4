// Command i1-sensor-simulator emulates a power-line monitoring node. It
// dials the ingest server, streams weather, tilt, conductor-temperature
// and heartbeat frames at a configurable rate, and prints the ACKs it
// gets back. Useful for exercising a server without field hardware.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linescope/linescope/pkg/i1"
)

func main() {
	server := flag.String("server", "127.0.0.1:9100", "Ingest server address")
	componentID := flag.String("component", "SIM-WS-001", "Component ID to report as")
	interval := flag.Duration("interval", 2*time.Second, "Delay between frames")
	hotLine := flag.Bool("hot-line", false, "Report conductor temperatures above the alert threshold")
	corrupt := flag.Float64("corrupt", 0, "Probability of corrupting a frame's CRC (0.0-1.0)")
	flag.Parse()

	conn, err := net.Dial("tcp", *server)
	if err != nil {
		log.Fatalf("could not connect to %s: %v", *server, err)
	}
	defer conn.Close()
	log.Printf("connected to %s as %s", *server, *componentID)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var frameNo byte
	for {
		select {
		case <-sigs:
			log.Print("shutting down")
			return
		case <-ticker.C:
			frameNo++
			frame := nextFrame(*componentID, frameNo, *hotLine)
			if *corrupt > 0 && rand.Float64() < *corrupt {
				frame[len(frame)-2] ^= 0xFF
				log.Printf("frame %d: corrupting CRC on purpose", frameNo)
			}
			if _, err := conn.Write(frame); err != nil {
				log.Fatalf("write failed: %v", err)
			}
			if err := readAck(conn); err != nil {
				log.Fatalf("reading ack: %v", err)
			}
		}
	}
}

// nextFrame rotates through the four uplink packet types.
func nextFrame(componentID string, frameNo byte, hotLine bool) []byte {
	now := uint32(time.Now().Unix())

	switch frameNo % 4 {
	case 1:
		wind := float32(5 + rand.Float64()*20)
		return i1.EncodeWeather(componentID, frameNo, i1.WeatherPayload{
			Component:          componentID,
			TimeStamp:          now,
			AvgWindSpeed:       wind,
			AvgWindDirection:   uint16(rand.Intn(360)),
			MaxWindSpeed:       wind * 1.4,
			ExtremeWindSpeed:   wind * 1.8,
			StandardWindSpeed:  wind * 0.9,
			AirTemperature:     float32(15 + rand.Float64()*15),
			Humidity:           float32(40 + rand.Float64()*50),
			AirPressure:        float32(1000 + rand.Float64()*25),
			RadiationIntensity: uint16(rand.Intn(1000)),
		})
	case 2:
		return i1.EncodeTowerTilt(componentID, frameNo, i1.TowerTiltPayload{
			Component:    componentID,
			TimeStamp:    now,
			Inclination:  float32(rand.Float64() * 3),
			InclinationX: float32(rand.Float64() * 2),
			InclinationY: float32(rand.Float64() * 2),
			AngleX:       float32(rand.Float64()*2 - 1),
			AngleY:       float32(rand.Float64()*2 - 1),
		})
	case 3:
		temp := float32(30 + rand.Float64()*30)
		if hotLine {
			temp = float32(85 + rand.Float64()*20)
		}
		return i1.EncodeLineTemperature(componentID, frameNo, i1.LineTemperaturePayload{
			Component:       componentID,
			UnitSum:         1,
			UnitNo:          1,
			TimeStamp:       now,
			LineTemperature: temp,
		})
	default:
		return i1.EncodeHeartbeat(componentID, frameNo, i1.HeartbeatPayload{
			CmdID:                componentID,
			ClockTimeStamp:       now,
			BatteryVoltage:       float32(11.5 + rand.Float64()),
			OperationTemperature: float32(20 + rand.Float64()*20),
			BatteryCapacity:      float32(60 + rand.Float64()*40),
			FloatingCharge:       1,
			TotalWorkingTime:     now / 10,
			WorkingTime:          3600,
			ConnectionState:      1,
			SendFlow:             uint32(rand.Intn(1 << 20)),
			ReceiveFlow:          uint32(rand.Intn(1 << 20)),
			ProtocolVersion:      [4]byte{1, 0, 0, 0},
		})
	}
}

func readAck(conn net.Conn) error {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return err
	}
	packetLength := int(binary.LittleEndian.Uint16(header[2:4]))
	rest := make([]byte, i1.Overhead+packetLength-4)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return err
	}

	ack := append(header, rest...)
	hdr, ok := i1.PeekHeader(ack)
	if !ok {
		return fmt.Errorf("short ack: %d bytes", len(ack))
	}

	status := "rejected"
	if ack[i1.HeaderLen] == i1.AckStatusOK {
		status = "accepted"
	}
	log.Printf("ack: type=0x%02X frame_no=%d %s", hdr.PacketType, hdr.FrameNo, status)
	return nil
}
