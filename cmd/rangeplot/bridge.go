package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/command"
)

// maxRequestSize bounds one request line; save_image payloads arrive
// inline as JSON arrays.
const maxRequestSize = 256 << 20

func newBridgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve host commands as JSON lines on stdin/stdout",
		Long: `Read one JSON request per line from stdin and write one JSON response
per line to stdout, in order:

  {"id": 1, "cmd": "read_excel", "args": {"path": "a.xlsx", "sheetName": null,
   "xCol": 0, "xRowStart": 1, "xRowEnd": 10, "yCol": 1, "yRowStart": 1, "yRowEnd": 10}}

Commands: greet, save_image, save_text_file, read_text_file_custom, read_excel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler()
			if err != nil {
				return err
			}
			return serve(h, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// serve answers requests from r until EOF. A line that is not valid JSON
// yields a request error response, and a result that cannot be encoded
// yields a format error response; neither stops the loop.
func serve(h *command.Handler, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp command.Response
		var req command.Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = command.Response{
				Error: rangeplot.NewError(command.KindRequest, "decode", "", err).Error(),
				Kind:  command.KindRequest,
			}
		} else {
			resp = h.Handle(req)
		}

		if err := writeResponse(enc, resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

// writeResponse encodes resp as one line. json.Encoder marshals before
// writing, so a result it rejects leaves no partial output and is
// replaced by an error response carrying the same id.
func writeResponse(enc *json.Encoder, resp command.Response) error {
	err := enc.Encode(resp)
	if err == nil {
		return nil
	}
	return enc.Encode(command.Response{
		ID:    resp.ID,
		Error: rangeplot.NewError(rangeplot.KindFormat, "encode", "", err).Error(),
		Kind:  rangeplot.KindFormat,
	})
}
