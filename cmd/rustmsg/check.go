package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rustmsg/internal/config"
	"rustmsg/internal/diag"
	"rustmsg/internal/explain"
	"rustmsg/internal/index"
	"rustmsg/internal/pipeline"
	"rustmsg/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <stream.json|->",
	Short: "Normalize a cargo JSON diagnostic stream",
	Long:  `Read the newline-delimited JSON diagnostics emitted by "cargo build --message-format=json" (from a file or stdin) and print them normalized, deduplicated and sorted`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// init registers CLI flags for the check command used by runCheck.
func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|html)")
	checkCmd.Flags().String("base-path", "", "directory the compiler ran in, for resolving relative paths (default: cwd)")
	checkCmd.Flags().String("target", "", "root source file of the build target, anchor for spanless errors")
	checkCmd.Flags().Bool("hide-warnings", false, "keep only errors")
	checkCmd.Flags().Uint32("link-distance", 0, "lines between spans before a cross-link is emitted (0 = config default)")
	checkCmd.Flags().String("config", "", "path to a rustmsg.toml config file")
	checkCmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	checkCmd.Flags().Int("jobs", 0, "max parallel decode workers (0=auto)")
	checkCmd.Flags().Bool("no-explain-cache", false, "do not persist the known-explanation registry")
}

// runCheck executes the "check" command: it drains the given stream into a
// session index and prints the surviving diagnostics in the chosen format.
// The process exits non-zero when the stream produced any errors.
func runCheck(cmd *cobra.Command, args []string) error {
	streamPath := args[0]

	// Получаем флаги
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	basePath, err := cmd.Flags().GetString("base-path")
	if err != nil {
		return fmt.Errorf("failed to get base-path flag: %w", err)
	}

	targetPath, err := cmd.Flags().GetString("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}

	hideWarnings, err := cmd.Flags().GetBool("hide-warnings")
	if err != nil {
		return fmt.Errorf("failed to get hide-warnings flag: %w", err)
	}

	linkDistance, err := cmd.Flags().GetUint32("link-distance")
	if err != nil {
		return fmt.Errorf("failed to get link-distance flag: %w", err)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	noExplainCache, err := cmd.Flags().GetBool("no-explain-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-explain-cache flag: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	if !useColor {
		color.NoColor = true
	}

	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	switch format {
	case "pretty", "json", "html":
		// supported
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	tracer := trace.FromContext(cmd.Context())

	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if hideWarnings {
		cfg.HideWarnings = true
	}
	if linkDistance > 0 {
		cfg.LinkDistance = linkDistance
	}

	if basePath == "" {
		if streamPath != "-" {
			basePath = filepath.Dir(streamPath)
		}
		if basePath == "" || basePath == "." {
			basePath, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
		}
	}

	var in io.Reader
	if streamPath == "-" {
		in = os.Stdin
	} else {
		f, openErr := os.Open(streamPath)
		if openErr != nil {
			return fmt.Errorf("failed to open stream: %w", openErr)
		}
		defer f.Close()
		in = f
	}

	reg, regErr := explain.Open("rustmsg")
	if regErr != nil {
		trace.Anomalyf(tracer, "explain", "cache unavailable: %v", regErr)
		reg = explain.NewRegistry()
		noExplainCache = true
	}

	idx := index.New(tracer)
	const sid = index.SessionID("cli")

	var sink diag.Sink
	if !quiet {
		noteColor := color.New(color.FgCyan)
		sink = func(sev diag.Severity, text string) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", noteColor.Sprint(sev.String()), text)
		}
	}

	opts := pipeline.Options{
		Session:      sid,
		BasePath:     basePath,
		TargetPath:   targetPath,
		HideWarnings: cfg.HideWarnings,
		LinkDistance: cfg.LinkDistance,
		Jobs:         jobs,
		Sink:         sink,
		Explain:      reg,
		Tracer:       tracer,
	}

	var summary pipeline.Summary
	if shouldUseTUI(mode) && format == "pretty" {
		summary, err = runWithUI(cmd.Context(), filepath.Base(streamPath), idx, in, opts)
	} else {
		summary, err = pipeline.Run(cmd.Context(), idx, in, opts)
	}
	if err != nil {
		return fmt.Errorf("stream processing failed: %w", err)
	}

	if !noExplainCache {
		if saveErr := reg.Save(); saveErr != nil {
			trace.Anomalyf(tracer, "explain", "cache save failed: %v", saveErr)
		}
	}

	hasErrors := false
	for _, item := range idx.ListAll(sid) {
		if item.Entry.Severity == diag.SevError {
			hasErrors = true
			break
		}
	}

	switch format {
	case "pretty":
		printPretty(os.Stdout, idx, sid)
	case "json":
		if err := printJSON(os.Stdout, idx, sid); err != nil {
			return fmt.Errorf("failed to encode diagnostics: %w", err)
		}
	case "html":
		printHTML(os.Stdout, idx, sid, cfg)
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "%d records: %d inserted, %d filtered, %d malformed\n",
			summary.Records, summary.Inserted, summary.Filtered, summary.Malformed)
	}

	if hasErrors {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

var severityColors = map[diag.Severity]*color.Color{
	diag.SevError:   color.New(color.FgRed, color.Bold),
	diag.SevWarning: color.New(color.FgYellow),
	diag.SevNote:    color.New(color.FgCyan),
	diag.SevHelp:    color.New(color.FgGreen),
}

func printPretty(out io.Writer, idx *index.Index, sid index.SessionID) {
	locColor := color.New(color.Faint)
	for _, path := range idx.Paths(sid) {
		for _, e := range idx.Visible(sid, path) {
			if e.Text == "" {
				continue
			}
			sev := severityColors[e.Severity].Sprint(e.Severity.String())
			loc := path
			if e.Region != nil {
				loc = fmt.Sprintf("%s:%d:%d", path, e.Region.Start.Line+1, e.Region.Start.Col+1)
			}
			indent := ""
			if !e.Primary {
				indent = "    "
			}
			text := strings.ReplaceAll(e.Text, "\n", "\n"+indent+"  ")
			fmt.Fprintf(out, "%s%s: %s\n%s  %s\n", indent, sev, text, indent, locColor.Sprint(loc))
		}
	}
}

type entryPayload struct {
	File      string `json:"file"`
	Line      uint32 `json:"line,omitempty"`
	Column    uint32 `json:"column,omitempty"`
	EndOfFile bool   `json:"end_of_file,omitempty"`
	Severity  string `json:"severity"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	Primary   bool   `json:"primary"`
	RegionKey string `json:"region_key"`
}

func printJSON(out io.Writer, idx *index.Index, sid index.SessionID) error {
	payload := make(map[string][]entryPayload)
	for _, path := range idx.Paths(sid) {
		entries := idx.Visible(sid, path)
		rows := make([]entryPayload, 0, len(entries))
		for _, e := range entries {
			if e.Text == "" {
				continue
			}
			row := entryPayload{
				File:      path,
				Severity:  e.Severity.String(),
				Code:      e.Code.ID,
				Message:   e.Text,
				Primary:   e.Primary,
				RegionKey: e.RegionKey,
			}
			if e.Region != nil {
				row.Line = e.Region.Start.Line + 1
				row.Column = e.Region.Start.Col + 1
			} else {
				row.EndOfFile = true
			}
			rows = append(rows, row)
		}
		payload[path] = rows
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func printHTML(out io.Writer, idx *index.Index, sid index.SessionID, cfg config.Config) {
	var sb strings.Builder
	for _, path := range idx.Paths(sid) {
		fmt.Fprintf(&sb, "<h3>%s</h3>\n", path)
		for _, e := range idx.Visible(sid, path) {
			if e.Rendered == "" {
				continue
			}
			sb.WriteString(e.Rendered)
			sb.WriteString("\n")
		}
	}
	fmt.Fprintln(out, cfg.RenderTheme().WrapCSS(sb.String(), false))
}
