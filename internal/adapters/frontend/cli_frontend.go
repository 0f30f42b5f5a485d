package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/urlfeatures"
	"go.uber.org/zap"
)

const (
	cliPrompt       = "phishguard> "
	emailTerminator = "."
	maxLineBytes    = 1 << 20
)

const cliHelp = `Commands:
  email          read email text until a line containing only "."
  url <url>      classify a URL
  features <url> print the URL features sent to feature-based models
  history        list results, newest first
  status         show the session and slot states
  help           show this help
  quit           leave the session
`

// CLISession implements an interactive terminal session on a controller
type CLISession struct {
	controller *core.SubmissionController
	logger     *zap.Logger
	verbose    bool
}

// NewCLISession creates a new CLI session
func NewCLISession(controller *core.SubmissionController, logger *zap.Logger, verbose bool) *CLISession {
	return &CLISession{
		controller: controller,
		logger:     logger,
		verbose:    verbose,
	}
}

// SubmitOnce submits a single payload and prints the result to out
func (s *CLISession) SubmitOnce(ctx context.Context, kind core.AnalysisKind, payload string, out io.Writer) (*core.AnalysisResult, error) {
	s.logger.Debug("Submitting from CLI", zap.String("kind", string(kind)), zap.Int("size", len(payload)))

	startTime := time.Now()
	result, err := s.controller.Submit(ctx, kind, payload)
	if err != nil {
		fmt.Fprintln(out, FormatError(err))
		return nil, err
	}

	fmt.Fprintln(out, FormatResult(*result))
	if s.verbose {
		fmt.Fprintf(out, "  id: %s\n  analyzed at: %s\n  processing time: %v\n",
			result.ID, result.AnalyzedAt.Format(time.RFC3339), time.Since(startTime))
	}
	return result, nil
}

// Run reads commands from in until quit, EOF or ctx is done. Submission
// failures are printed and never end the session.
func (s *CLISession) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	fmt.Fprintf(out, "Signed in as %s. Type \"help\" for commands.\n", s.controller.Session().UserEmail)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, cliPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch strings.ToLower(cmd) {
		case "":
		case "email":
			text, ok := readEmail(scanner)
			if !ok {
				fmt.Fprintln(out, "Email input ended before the terminating \".\"")
				return scanner.Err()
			}
			s.SubmitOnce(ctx, core.KindEmail, text, out)
		case "url":
			s.SubmitOnce(ctx, core.KindURL, arg, out)
		case "features":
			s.printFeatures(out, arg)
		case "history":
			s.printHistory(out)
		case "status":
			s.printStatus(out)
		case "help", "?":
			fmt.Fprint(out, cliHelp)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q. Type \"help\" for commands.\n", cmd)
		}
	}
}

// readEmail collects lines up to the terminator line
func readEmail(scanner *bufio.Scanner) (string, bool) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == emailTerminator {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
	}
	return "", false
}

func (s *CLISession) printFeatures(out io.Writer, rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		fmt.Fprintln(out, "Usage: features <url>")
		return
	}

	data, err := json.MarshalIndent(urlfeatures.Extract(rawURL), "", "  ")
	if err != nil {
		fmt.Fprintln(out, "Error: "+err.Error())
		return
	}
	fmt.Fprintln(out, string(data))
}

func (s *CLISession) printHistory(out io.Writer) {
	history := s.controller.History()
	if history.Len() == 0 {
		fmt.Fprintln(out, "No analyses yet")
		return
	}

	i := 1
	for result := range history.All() {
		fmt.Fprintf(out, "%3d. %s\n", i, FormatResult(result))
		i++
	}
}

func (s *CLISession) printStatus(out io.Writer) {
	fmt.Fprintf(out, "User: %s\n", s.controller.Session().UserEmail)
	for _, kind := range core.Kinds {
		fmt.Fprintf(out, "Slot %-5s %s\n", kind+":", s.controller.State(kind))
	}
	fmt.Fprintf(out, "Results: %d\n", s.controller.History().Len())
}
