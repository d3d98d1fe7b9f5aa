// Package bgremoval runs background removal on an isolated worker goroutine
// and exposes it through a typed request/response channel.
//
// Buffers are handed over, not copied: once a request is sent the caller must
// not touch its buffer, and a Result buffer belongs to the receiver.
package bgremoval

// MessageType discriminates protocol messages
type MessageType string

const (
	TypeProcessImage MessageType = "processImage"
	TypeCropImage    MessageType = "cropImage"
	TypeProgress     MessageType = "progress"
	TypeResult       MessageType = "result"
	TypeError        MessageType = "error"
)

// Request is sent to the worker. Implemented by ProcessImageRequest and CropImageRequest.
type Request interface {
	Type() MessageType
	requestID() uint64
}

// ProcessImageRequest asks the worker to remove the background
type ProcessImageRequest struct {
	ID       uint64
	Buffer   []byte
	MimeType string
}

// CropImageRequest asks the worker to trim transparent margins
type CropImageRequest struct {
	ID       uint64
	Buffer   []byte
	MimeType string
	Padding  int
}

func (ProcessImageRequest) Type() MessageType { return TypeProcessImage }
func (r ProcessImageRequest) requestID() uint64 { return r.ID }
func (CropImageRequest) Type() MessageType { return TypeCropImage }
func (r CropImageRequest) requestID() uint64 { return r.ID }

// Response is sent by the worker. Progress may occur zero or more times;
// exactly one Result or Error terminates a request.
type Response interface {
	Type() MessageType
	RequestID() uint64
}

// Progress reports intermediate progress
type Progress struct {
	ID      uint64
	Percent int
	Stage   string
}

// Result is the terminal success response
type Result struct {
	ID       uint64
	Buffer   []byte
	MimeType string
}

// Error is the terminal failure response
type Error struct {
	ID      uint64
	Message string
}

func (Progress) Type() MessageType { return TypeProgress }
func (p Progress) RequestID() uint64 { return p.ID }
func (Result) Type() MessageType { return TypeResult }
func (r Result) RequestID() uint64 { return r.ID }
func (Error) Type() MessageType { return TypeError }
func (e Error) RequestID() uint64 { return e.ID }
func (e Error) Error() string { return e.Message }
