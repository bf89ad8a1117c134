// Package main provides the CLI entry point for rangeplot-go.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/command"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/models"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/output"
	"github.com/ukaji3/rangeplot-go/pkg/rangeplot/parser"
)

var (
	outputPath   string
	pretty       bool
	format       string
	sheetName    string
	xRef         string
	yRef         string
	xCol         int
	yCol         int
	xRows        string
	yRows        string
	seriesIndex  int
	charset      string
	textEncoding string
	delimiter    string
	atomicWrites bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rangeplot",
		Short: "Extract (x, y) samples from spreadsheet ranges",
		Long: `rangeplot-go reads two numeric ranges from a spreadsheet (xlsx, xlsb,
xls or csv) and emits them as paired (x, y) points for plotting.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&charset, "charset", "", "Code page for legacy .xls files (default: utf-8)")
	rootCmd.PersistentFlags().StringVar(&textEncoding, "encoding", "", "Encoding of csv files, e.g. windows-1252 (default: utf-8)")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", "", "Field delimiter for csv files (default: ',' or tab for .tsv)")
	rootCmd.PersistentFlags().BoolVar(&atomicWrites, "atomic", false, "Write files through a temporary file and rename")

	sampleCmd := &cobra.Command{
		Use:   "sample [workbook]",
		Short: "Sample paired points from two column ranges",
		Long: `Sample paired points from two column ranges.

Ranges are given either as A1 references (--x A2:A20 --y B2:B20) or as
0-based column indices with row spans (--x-col 0 --x-rows 1:19).
With --series the ranges come from a chart embedded in the workbook, and
without any range the first two numeric columns are used.`,
		Args: cobra.ExactArgs(1),
		RunE: runSample,
	}
	sampleCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	sampleCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	sampleCmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv")
	sampleCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet name (default: first sheet)")
	sampleCmd.Flags().StringVar(&xRef, "x", "", "X range as an A1 reference")
	sampleCmd.Flags().StringVar(&yRef, "y", "", "Y range as an A1 reference")
	sampleCmd.Flags().IntVar(&xCol, "x-col", -1, "X column (0-based)")
	sampleCmd.Flags().IntVar(&yCol, "y-col", -1, "Y column (0-based)")
	sampleCmd.Flags().StringVar(&xRows, "x-rows", "", "X rows as start:end (0-based, inclusive)")
	sampleCmd.Flags().StringVar(&yRows, "y-rows", "", "Y rows as start:end (0-based, inclusive)")
	sampleCmd.Flags().IntVar(&seriesIndex, "series", -1, "Use the ranges of the N-th chart series (see 'charts')")

	inspectCmd := &cobra.Command{
		Use:   "inspect [workbook]",
		Short: "List sheets with their extent and numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	chartsCmd := &cobra.Command{
		Use:   "charts [workbook.xlsx]",
		Short: "List chart series usable as sample ranges",
		Args:  cobra.ExactArgs(1),
		RunE:  runCharts,
	}
	chartsCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	greetCmd := &cobra.Command{
		Use:   "greet [name]",
		Short: "Print a greeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h.Greet(args[0]))
			return err
		},
	}

	readTextCmd := &cobra.Command{
		Use:   "read-text [path]",
		Short: "Print a UTF-8 text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler()
			if err != nil {
				return err
			}
			content, err := h.ReadTextFile(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), content)
			return err
		},
	}

	saveTextCmd := &cobra.Command{
		Use:   "save-text [path]",
		Short: "Save stdin to a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler()
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return h.SaveTextFile(args[0], string(data))
		},
	}

	saveImageCmd := &cobra.Command{
		Use:   "save-image [path]",
		Short: "Save stdin to a binary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler()
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return h.SaveImage(args[0], data)
		},
	}

	rootCmd.AddCommand(sampleCmd, inspectCmd, chartsCmd, greetCmd, readTextCmd, saveTextCmd, saveImageCmd, newBridgeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sampleOptions() (rangeplot.Options, error) {
	opts := rangeplot.DefaultOptions()
	if charset != "" {
		opts.Charset = charset
	}
	opts.TextEncoding = textEncoding
	if delimiter != "" {
		d := delimiter
		if d == `\t` {
			d = "\t"
		}
		r := []rune(d)
		if len(r) != 1 {
			return opts, fmt.Errorf("invalid delimiter: %q (must be a single character)", delimiter)
		}
		opts.Comma = r[0]
	}
	return opts, nil
}

func newHandler() (*command.Handler, error) {
	sample, err := sampleOptions()
	if err != nil {
		return nil, err
	}
	opts := command.DefaultOptions()
	opts.Sample = sample
	opts.AtomicWrites = atomicWrites
	return command.NewHandler(opts), nil
}

func runSample(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if format != "json" && format != "csv" {
		return fmt.Errorf("invalid format: %s (must be json or csv)", format)
	}

	opts, err := sampleOptions()
	if err != nil {
		return err
	}

	req, err := buildRequest(cmd, inputPath, opts)
	if err != nil {
		return err
	}

	points, err := rangeplot.Sample(req, opts)
	if err != nil {
		return fmt.Errorf("sampling failed: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case "json":
		data, err := output.PointsToJSON(points, pretty)
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case "csv":
		if err := output.WriteCSV(&buf, points); err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
	}

	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// buildRequest assembles the sample request from whichever range flags
// were given.
func buildRequest(cmd *cobra.Command, path string, opts rangeplot.Options) (models.SampleRequest, error) {
	var sheet *string
	if sheetName != "" {
		sheet = &sheetName
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("series"):
		_, reqs, err := rangeplot.ChartRequests(path)
		if err != nil {
			return models.SampleRequest{}, err
		}
		if seriesIndex < 0 || seriesIndex >= len(reqs) {
			return models.SampleRequest{}, fmt.Errorf("series %d not found (workbook has %d usable series)", seriesIndex, len(reqs))
		}
		return reqs[seriesIndex], nil

	case xRef != "" || yRef != "":
		if xRef == "" || yRef == "" {
			return models.SampleRequest{}, fmt.Errorf("--x and --y must be given together")
		}
		xSheet, x, err := parser.ParseColumnRef(xRef)
		if err != nil {
			return models.SampleRequest{}, fmt.Errorf("invalid --x: %w", err)
		}
		ySheet, y, err := parser.ParseColumnRef(yRef)
		if err != nil {
			return models.SampleRequest{}, fmt.Errorf("invalid --y: %w", err)
		}
		if xSheet != ySheet {
			return models.SampleRequest{}, fmt.Errorf("--x and --y must refer to the same sheet")
		}
		if xSheet != "" {
			if sheet != nil && *sheet != xSheet {
				return models.SampleRequest{}, fmt.Errorf("--sheet %q conflicts with range sheet %q", *sheet, xSheet)
			}
			sheet = &xSheet
		}
		return models.SampleRequest{Path: path, Sheet: sheet, X: x, Y: y}, nil

	case xCol >= 0 || yCol >= 0:
		if xCol < 0 || yCol < 0 || xRows == "" || yRows == "" {
			return models.SampleRequest{}, fmt.Errorf("--x-col, --x-rows, --y-col and --y-rows must be given together")
		}
		xr, err := parseRows(xRows)
		if err != nil {
			return models.SampleRequest{}, fmt.Errorf("invalid --x-rows: %w", err)
		}
		yr, err := parseRows(yRows)
		if err != nil {
			return models.SampleRequest{}, fmt.Errorf("invalid --y-rows: %w", err)
		}
		return models.SampleRequest{
			Path:  path,
			Sheet: sheet,
			X:     models.ColumnRange{Column: xCol, Rows: xr},
			Y:     models.ColumnRange{Column: yCol, Rows: yr},
		}, nil

	default:
		return rangeplot.Suggest(path, sheet, opts)
	}
}

// parseRows parses "start:end" (or a single row) into a row range.
func parseRows(s string) (models.RowRange, error) {
	start, end, found := strings.Cut(s, ":")
	if !found {
		end = start
	}
	a, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return models.RowRange{}, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return models.RowRange{}, err
	}
	if a < 0 || b < 0 {
		return models.RowRange{}, fmt.Errorf("row indices must be non-negative")
	}
	return models.RowRange{Start: a, End: b}, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts, err := sampleOptions()
	if err != nil {
		return err
	}
	sheets, err := rangeplot.Inspect(args[0], opts)
	if err != nil {
		return err
	}
	data, err := output.ToJSON(sheets, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runCharts(cmd *cobra.Command, args []string) error {
	series, _, err := rangeplot.ChartRequests(args[0])
	if err != nil {
		return err
	}
	if series == nil {
		series = []models.ChartSeries{}
	}
	data, err := output.ToJSON(series, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
