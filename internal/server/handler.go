package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/linescope/linescope/internal/monitoring"
	"github.com/linescope/linescope/internal/store"
	"github.com/linescope/linescope/pkg/i1"
	"go.uber.org/zap"
)

// connHandler serves one sensor connection: read, extract, decode,
// dispatch, ACK. The handler owns its socket and its byte buffer; the
// store is the only shared state it touches.
type connHandler struct {
	conn      net.Conn
	store     *store.TelemetryStore
	extractor *i1.Extractor
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

func newConnHandler(conn net.Conn, st *store.TelemetryStore, opts Options, logger *zap.SugaredLogger) *connHandler {
	connID := uuid.New().String()[:8]
	return &connHandler{
		conn:      conn,
		store:     st,
		extractor: i1.NewExtractor(opts.MaxFrameSize),
		timeout:   opts.ReadTimeout,
		logger:    logger.With("conn", connID, "peer", conn.RemoteAddr().String()),
	}
}

func (h *connHandler) run() {
	monitoring.ActiveConnections.Inc()
	defer monitoring.ActiveConnections.Dec()
	defer h.conn.Close()

	h.logger.Info("sensor connected")

	buf := make([]byte, recvBufferSize)
	for {
		h.conn.SetReadDeadline(time.Now().Add(h.timeout))

		n, err := h.conn.Read(buf)
		if n > 0 {
			h.extractor.Append(buf[:n])
			for {
				frame, ok := h.extractor.Next()
				if !ok {
					break
				}
				h.processFrame(frame)
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Idle link. Keep waiting; sensors report slowly.
				continue
			}
			if errors.Is(err, io.EOF) {
				h.logger.Info("sensor disconnected")
			} else {
				h.logger.Warnf("connection error: %v", err)
			}
			return
		}
	}
}

// processFrame decodes one extracted frame, dispatches its payload and
// answers with exactly one ACK. Decode failures still get a failure ACK
// built from the peeked header; a frame too mangled to peek is dropped
// without a reply.
func (h *connHandler) processFrame(frame []byte) {
	hdr, peeked := i1.PeekHeader(frame)
	if peeked {
		monitoring.FramesReceived.WithLabelValues(i1.PacketTypeName(hdr.PacketType)).Inc()
	}

	parsed, err := i1.DecodeUplink(frame)
	if err != nil {
		monitoring.FrameErrors.WithLabelValues(errorKind(err)).Inc()
		h.logger.Warnf("frame rejected: %v", err)
		if !peeked {
			return
		}
		h.sendAck(i1.EncodeAck(hdr.CmdID, hdr.PacketType, hdr.FrameNo, false), false)
		return
	}

	h.dispatch(parsed)
	h.sendAck(i1.EncodeAck(parsed.CmdID, parsed.PacketType, parsed.FrameNo, true), true)
}

func (h *connHandler) dispatch(parsed *i1.ParsedFrame) {
	switch p := parsed.Payload.(type) {
	case i1.WeatherPayload:
		rec := h.store.AddWeather(p, parsed.FrameNo)
		monitoring.WeatherRecords.Set(float64(h.store.WeatherCount()))
		h.logger.Debugf("weather stored: component=%s ts=%s foreign_object=%d",
			rec.ComponentID, rec.TimestampBeijing, rec.WireForeignObject)
	case i1.TowerTiltPayload:
		h.store.AddTowerTilt(p)
		h.logger.Debugf("tower tilt stored: component=%s", p.Component)
	case i1.LineTemperaturePayload:
		h.store.AddLineTemperature(p)
		h.logger.Debugf("line temperature stored: component=%s unit=%d/%d temp=%.1f",
			p.Component, p.UnitNo, p.UnitSum, p.LineTemperature)
	case i1.HeartbeatPayload:
		h.store.AddHeartbeat(p)
		h.logger.Debugf("heartbeat stored: device=%s battery=%.1fV", p.CmdID, p.BatteryVoltage)
	}
}

// sendAck writes the ACK on the same socket the frame arrived on. A send
// failure is logged and tolerated; the read loop carries on.
func (h *connHandler) sendAck(ack []byte, success bool) {
	status := "failed"
	if success {
		status = "ok"
	}
	if _, err := h.conn.Write(ack); err != nil {
		h.logger.Warnf("ack send failed: %v", err)
		return
	}
	monitoring.AcksSent.WithLabelValues(status).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, i1.ErrShortFrame):
		return "short_frame"
	case errors.Is(err, i1.ErrBadSync):
		return "bad_sync"
	case errors.Is(err, i1.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, i1.ErrBadEnd):
		return "bad_end"
	case errors.Is(err, i1.ErrCRCMismatch):
		return "crc_mismatch"
	case errors.Is(err, i1.ErrPayloadTruncated):
		return "payload_truncated"
	case errors.Is(err, i1.ErrUnsupportedPacketType):
		return "unsupported_packet_type"
	default:
		return "other"
	}
}
