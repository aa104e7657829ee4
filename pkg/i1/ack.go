package i1

import (
	"encoding/binary"
	"time"

	"github.com/linescope/linescope/pkg/crc16"
)

// EncodeAck builds the downlink ACK for an uplink frame. Heartbeats get
// the extended ACK with mode 0x00 and the current wall clock; everything
// else carries the single status byte.
func EncodeAck(cmdID string, packetType, frameNo byte, success bool) []byte {
	if packetType == PacketTypeHeartbeat {
		return EncodeHeartbeatAck(cmdID, frameNo, success, 0x00, time.Now())
	}
	return encodeFrame(cmdID, FrameTypeDownlink, AckType(packetType), frameNo, []byte{statusByte(success)})
}

// EncodeHeartbeatAck builds the heartbeat ACK, which carries the server's
// operating mode and clock so devices can resynchronize.
func EncodeHeartbeatAck(cmdID string, frameNo byte, success bool, mode byte, clock time.Time) []byte {
	content := make([]byte, 6)
	content[0] = statusByte(success)
	content[1] = mode
	binary.LittleEndian.PutUint32(content[2:], uint32(clock.Unix()))
	return encodeFrame(cmdID, FrameTypeDownlink, PacketTypeHeartbeatAck, frameNo, content)
}

func statusByte(success bool) byte {
	if success {
		return AckStatusOK
	}
	return AckStatusFailed
}

// encodeFrame assembles a complete frame around content. CmdID is
// truncated or zero-padded to its fixed width.
func encodeFrame(cmdID string, frameType, packetType, frameNo byte, content []byte) []byte {
	frame := make([]byte, 0, Overhead+len(content))
	frame = append(frame, SyncByte0, SyncByte1)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(content)))

	var id [CmdIDLen]byte
	copy(id[:], cmdID)
	frame = append(frame, id[:]...)

	frame = append(frame, frameType, packetType, frameNo)
	frame = append(frame, content...)

	frame = binary.LittleEndian.AppendUint16(frame, crc16.Checksum(frame[2:]))
	frame = append(frame, EndByte)
	return frame
}
