package command

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ukaji3/rangeplot-go/pkg/rangeplot"
)

// Command names understood by Dispatch.
const (
	CmdGreet        = "greet"
	CmdSaveImage    = "save_image"
	CmdSaveTextFile = "save_text_file"
	CmdReadTextFile = "read_text_file_custom"
	CmdReadExcel    = "read_excel"
)

// KindRequest tags malformed requests: unknown commands and arguments
// that are missing or of the wrong type.
const KindRequest rangeplot.Kind = "request"

// ErrUnknownCommand is returned for a command name Dispatch does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Request is one command invocation from the host.
type Request struct {
	// ID is echoed back in the response so the host can match them.
	ID   json.RawMessage `json:"id,omitempty"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response is the outcome of a Request. Result is null for commands that
// only report success.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result"`
	Error  string          `json:"error,omitempty"`
	Kind   rangeplot.Kind  `json:"kind,omitempty"`
}

// Bytes decodes binary payloads sent either as a JSON array of byte
// values or as a base64 string.
type Bytes []byte

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("byte value %d at index %d out of range", v, i)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*b = out
	return nil
}

type greetArgs struct {
	Name string `json:"name"`
}

type saveImageArgs struct {
	Path string `json:"path"`
	Data Bytes  `json:"data"`
}

type saveTextArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type readTextArgs struct {
	Path string `json:"path"`
}

// Dispatch runs the named command with JSON-encoded arguments. Argument
// keys use the host's camelCase names (sheetName, xCol, ...).
func (h *Handler) Dispatch(name string, args json.RawMessage) (any, error) {
	switch name {
	case CmdGreet:
		var a greetArgs
		if err := decodeArgs(name, args, &a, "name"); err != nil {
			return nil, err
		}
		return h.Greet(a.Name), nil

	case CmdSaveImage:
		var a saveImageArgs
		if err := decodeArgs(name, args, &a, "path", "data"); err != nil {
			return nil, err
		}
		return nil, h.SaveImage(a.Path, a.Data)

	case CmdSaveTextFile:
		var a saveTextArgs
		if err := decodeArgs(name, args, &a, "path", "content"); err != nil {
			return nil, err
		}
		return nil, h.SaveTextFile(a.Path, a.Content)

	case CmdReadTextFile:
		var a readTextArgs
		if err := decodeArgs(name, args, &a, "path"); err != nil {
			return nil, err
		}
		return h.ReadTextFile(a.Path)

	case CmdReadExcel:
		var a ReadExcelArgs
		if err := decodeArgs(name, args, &a,
			"path", "xCol", "xRowStart", "xRowEnd", "yCol", "yRowStart", "yRowEnd"); err != nil {
			return nil, err
		}
		return h.ReadExcel(a)

	default:
		return nil, rangeplot.NewError(KindRequest, "dispatch", "", fmt.Errorf("%w: %q", ErrUnknownCommand, name))
	}
}

// Handle runs req and wraps the outcome in a Response.
func (h *Handler) Handle(req Request) Response {
	result, err := h.Dispatch(req.Cmd, req.Args)
	if err != nil {
		return Response{
			ID:    req.ID,
			Error: err.Error(),
			Kind:  rangeplot.KindOf(err),
		}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

// Commands returns the names accepted by Dispatch, sorted.
func Commands() []string {
	names := []string{CmdGreet, CmdSaveImage, CmdSaveTextFile, CmdReadTextFile, CmdReadExcel}
	sort.Strings(names)
	return names
}

// decodeArgs unmarshals args into v after checking every required key
// is present and non-null.
func decodeArgs(cmd string, args json.RawMessage, v any, required ...string) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(args, &keys); err != nil {
		return rangeplot.NewError(KindRequest, cmd, "", fmt.Errorf("invalid args: %w", err))
	}
	for _, key := range required {
		if raw, ok := keys[key]; !ok || string(bytes.TrimSpace(raw)) == "null" {
			return rangeplot.NewError(KindRequest, cmd, "", fmt.Errorf("missing required key %s", key))
		}
	}

	if err := json.Unmarshal(args, v); err != nil {
		return rangeplot.NewError(KindRequest, cmd, "", fmt.Errorf("invalid args: %w", err))
	}
	return nil
}
