// Package collector runs the external staking rewards collector and reads
// back the report it writes.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

var (
	// ErrNoRewards is returned when the address has no reward history.
	ErrNoRewards = errors.New("no rewards found")

	// ErrDateTooEarly is returned when the requested start precedes the
	// collector's price history.
	ErrDateTooEarly = errors.New("start date too early")

	// ErrFailed is returned when the collector could not produce a report.
	ErrFailed = errors.New("rewards collector failed")
)

// Stdout phrases the collector prints instead of a structured status.
const (
	noRewardsPhrase = "No rewards found to parse"
	tooEarlyPhrase  = "too early"
)

// Environment variables carrying the per-run file locations.
const (
	EnvInputFile = "SRC_INPUT_FILE"
	EnvOutputDir = "SRC_OUTPUT_DIR"
)

// inputPath is where the collector reads its input, relative to its
// working directory.
var inputPath = filepath.Join("config", "userInput.json")

// Report formats kept in the reports directory.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// waitDelay bounds how long a killed collector's children may hold its
// output open.
const waitDelay = 5 * time.Second

// DefaultStart is the first day collected when a request has no start.
const DefaultStart = "2020-01-01"

// Request selects the rewards to collect for one stash.
type Request struct {
	Stash        string
	Network      string // chain name, e.g. Polkadot
	Start        string // YYYY-MM-DD, default DefaultStart
	End          string // YYYY-MM-DD, default today (UTC)
	Currency     string // default USD
	PriceData    *bool  // default true
	StartBalance float64
}

// Input builds the collector input for the request as of now.
func (r Request) Input(now time.Time) Input {
	start := r.Start
	if start == "" {
		start = DefaultStart
	}
	end := r.End
	if end == "" {
		end = now.UTC().Format("2006-01-02")
	}
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	priceData := true
	if r.PriceData != nil {
		priceData = *r.PriceData
	}

	return Input{
		Start:        start,
		End:          end,
		Currency:     currency,
		PriceData:    strconv.FormatBool(priceData),
		ExportOutput: "true",
		Addresses: []InputAddress{{
			Name:         "",
			Address:      r.Stash,
			StartBalance: r.StartBalance,
			Network:      r.Network,
		}},
	}
}

// Runner invokes the collector. Every run gets its own work directory, so
// runs do not serialize.
//
// The work directory mirrors the collector checkout through symlinks, with
// the run's input at config/userInput.json. The collector runs there and
// writes <address>.json (and .csv) into it, as it would in its checkout.
// The same locations are also passed in EnvInputFile and EnvOutputDir.
type Runner struct {
	dir        string
	command    []string
	timeout    time.Duration
	reportsDir string
	now        func() time.Time
	log        *logrus.Entry
}

// Options for creating Runner.
type Options struct {
	Dir        string   // collector checkout, mirrored into each run's work directory
	Command    []string // run in the work directory; Default: node src/index.js
	Timeout    time.Duration
	ReportsDir string // optional; keeps the produced csv/json per stash
	Log        *logrus.Entry
}

// NewRunner creates a new Runner.
func NewRunner(opts Options) *Runner {
	command := opts.Command
	if len(command) == 0 {
		command = []string{"node", "src/index.js"}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Runner{
		dir:        opts.Dir,
		command:    command,
		timeout:    timeout,
		reportsDir: opts.ReportsDir,
		now:        time.Now,
		log:        logging.OrDefault(opts.Log),
	}
}

// Run collects the rewards of req.Stash. It returns ErrNoRewards or
// ErrDateTooEarly when the collector reports them, ErrFailed otherwise.
func (r *Runner) Run(ctx context.Context, req Request) (*domain.StashRewards, error) {
	if req.Stash == "" {
		return nil, fmt.Errorf("collect rewards: empty stash: %w", storage.ErrInvalidInput)
	}

	started := time.Now()
	result, err := r.run(ctx, req)
	observability.RecordCollectorRun(runStatus(err), time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	return result.StashRewards(), nil
}

func (r *Runner) run(ctx context.Context, req Request) (*SRCResult, error) {
	workDir, err := os.MkdirTemp("", "rewards-collector-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %v", ErrFailed, err)
	}
	defer os.RemoveAll(workDir)

	if err := r.stage(workDir, req.Stash); err != nil {
		return nil, fmt.Errorf("%w: stage work dir: %v", ErrFailed, err)
	}

	inputFile := filepath.Join(workDir, inputPath)
	input, err := json.MarshalIndent(req.Input(r.now()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode input: %v", ErrFailed, err)
	}
	if err := os.WriteFile(inputFile, input, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", ErrFailed, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		EnvInputFile+"="+inputFile,
		EnvOutputDir+"="+workDir,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log := r.log.WithField("stash", req.Stash)
	log.Debug("running rewards collector")
	runErr := cmd.Run()

	out := stdout.String()
	switch {
	case strings.Contains(out, noRewardsPhrase):
		return nil, fmt.Errorf("collect rewards of %s: %w", req.Stash, ErrNoRewards)
	case strings.Contains(strings.ToLower(out), tooEarlyPhrase):
		return nil, fmt.Errorf("collect rewards of %s: %w", req.Stash, ErrDateTooEarly)
	}

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %v", ErrFailed, r.timeout)
		}
		log.WithFields(logrus.Fields{
			"error":  runErr,
			"stderr": strings.TrimSpace(stderr.String()),
		}).Warn("rewards collector exited with error")
		return nil, fmt.Errorf("%w: %v", ErrFailed, runErr)
	}

	data, err := os.ReadFile(filepath.Join(workDir, req.Stash+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: read report: %v", ErrFailed, err)
	}
	var result SRCResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: parse report: %v", ErrFailed, err)
	}

	if r.reportsDir != "" {
		if err := r.keep(workDir, req.Stash); err != nil {
			log.WithError(err).Warn("keep rewards report")
		}
	}
	return &result, nil
}

// stage links the entries of the collector checkout into workDir and
// creates its config directory. The run's input and the stash's reports
// are never linked, so a run only sees the files it writes itself.
func (r *Runner) stage(workDir, stash string) error {
	configDir := filepath.Join(workDir, filepath.Dir(inputPath))
	if r.dir == "" {
		return os.Mkdir(configDir, 0o755)
	}

	checkout, err := filepath.Abs(r.dir)
	if err != nil {
		return err
	}
	skip := map[string]bool{
		filepath.Dir(inputPath): true,
		stash + "." + FormatJSON: true,
		stash + "." + FormatCSV:  true,
	}
	if err := linkEntries(checkout, workDir, skip); err != nil {
		return err
	}

	if err := os.Mkdir(configDir, 0o755); err != nil {
		return err
	}
	err = linkEntries(filepath.Join(checkout, filepath.Dir(inputPath)), configDir,
		map[string]bool{filepath.Base(inputPath): true})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func linkEntries(from, to string, skip map[string]bool) error {
	entries, err := os.ReadDir(from)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if skip[e.Name()] {
			continue
		}
		if err := os.Symlink(filepath.Join(from, e.Name()), filepath.Join(to, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// keep moves the produced reports of stash into the reports directory.
func (r *Runner) keep(outDir, stash string) error {
	if err := os.MkdirAll(r.reportsDir, 0o755); err != nil {
		return err
	}
	for _, format := range []string{FormatJSON, FormatCSV} {
		name := stash + "." + format
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}

		tmp := filepath.Join(r.reportsDir, "."+name+".tmp")
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return err
		}
		if err := os.Rename(tmp, filepath.Join(r.reportsDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Report returns the last kept report of stash in format (csv or json).
func (r *Runner) Report(stash, format string) ([]byte, error) {
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("report format %q: %w", format, storage.ErrInvalidInput)
	}
	if stash == "" || filepath.Base(stash) != stash || strings.HasPrefix(stash, ".") {
		return nil, fmt.Errorf("report stash %q: %w", stash, storage.ErrInvalidInput)
	}
	if r.reportsDir == "" {
		return nil, fmt.Errorf("report of %s: %w", stash, storage.ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(r.reportsDir, stash+"."+format))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("report of %s: %w", stash, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read report of %s: %w", stash, err)
	}
	return data, nil
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoRewards):
		return "no_rewards"
	case errors.Is(err, ErrDateTooEarly):
		return "too_early"
	default:
		return "failed"
	}
}
