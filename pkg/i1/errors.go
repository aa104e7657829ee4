package i1

import "errors"

// Protocol error kinds. All of them are recoverable at the connection
// level: the handler answers with a failure ACK when the header is
// readable and otherwise drops the frame.
var (
	ErrShortFrame            = errors.New("frame shorter than minimum length")
	ErrBadSync               = errors.New("sync bytes missing")
	ErrLengthMismatch        = errors.New("frame length does not match declared packet length")
	ErrBadEnd                = errors.New("end byte missing")
	ErrCRCMismatch           = errors.New("crc mismatch")
	ErrPayloadTruncated      = errors.New("payload shorter than packet type requires")
	ErrUnsupportedPacketType = errors.New("unsupported packet type")
)
