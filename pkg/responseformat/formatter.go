// Package responseformat encodes HTTP responses as JSON or MessagePack,
// selected per request.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format.
type Formatter struct{}

// NewFormatter creates a new response formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes data in the format the request asks for. JSON is
// the default; MessagePack is used when format=msgpack is specified.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

// WriteWrapped writes data under a {"lastUpdated": ..., "data": ...}
// envelope so pollers can cheaply detect staleness.
func (f *Formatter) WriteWrapped(w http.ResponseWriter, req *http.Request, lastUpdated string, data any) error {
	return f.WriteResponse(w, req, map[string]any{
		"lastUpdated": lastUpdated,
		"data":        data,
	})
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
