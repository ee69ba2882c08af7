package collector

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validator-explorer/internal/logging"
	"validator-explorer/internal/storage"
)

const stash = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

const fixture = `{
	"address": "` + stash + `",
	"network": "Polkadot",
	"currency": "USD",
	"startBalance": 0,
	"firstReward": "02-01-2021",
	"lastReward": "04-01-2021",
	"annualizedReturn": null,
	"currentValueRewardsFiat": 12,
	"totalAmountHumanReadable": 3,
	"totalValueFiat": 11,
	"data": {
		"numberRewardsParsed": 2,
		"numberOfDays": 4,
		"list": [
			{"day": "01-01-2021", "price": 8, "volume": 0, "amountHumanReadable": 0, "valueFiat": 0},
			{"day": "02-01-2021", "price": 8, "volume": 0, "amountHumanReadable": 1, "valueFiat": 8},
			{"day": "03-01-2021", "price": 9, "volume": 0, "amountHumanReadable": 0, "valueFiat": 0},
			{"day": "04-01-2021", "price": 1.5, "volume": 0, "amountHumanReadable": 2, "valueFiat": 3}
		]
	}
}`

// shellRunner returns a Runner whose collector is a shell script.
func shellRunner(t *testing.T, script string, opts Options) *Runner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	opts.Command = []string{"sh", "-c", script}
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	opts.Log = logging.Discard()
	return NewRunner(opts)
}

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func TestRun_ParsesReport(t *testing.T) {
	dir := t.TempDir()
	report := writeFixture(t, dir)
	captured := filepath.Join(dir, "input.json")

	r := shellRunner(t, `cp "$SRC_INPUT_FILE" "`+captured+`" && cp "`+report+`" "$SRC_OUTPUT_DIR/`+stash+`.json"`, Options{})
	r.now = func() time.Time { return time.Date(2021, 2, 3, 10, 0, 0, 0, time.UTC) }

	got, err := r.Run(context.Background(), Request{Stash: stash, Network: "Polkadot"})
	require.NoError(t, err)

	assert.Equal(t, stash, got.Stash)
	require.Len(t, got.EraRewards, 3, "leading zero day dropped, later zero day kept")
	assert.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), got.EraRewards[0].Timestamp)
	assert.Equal(t, 8.0, got.EraRewards[0].Total)
	assert.Equal(t, 0.0, got.EraRewards[1].Amount)
	assert.InDelta(t, 11.0, got.TotalInFiat, 1e-9)

	data, err := os.ReadFile(captured)
	require.NoError(t, err)
	var in Input
	require.NoError(t, json.Unmarshal(data, &in))
	assert.Equal(t, DefaultStart, in.Start)
	assert.Equal(t, "2021-02-03", in.End)
	assert.Equal(t, "USD", in.Currency)
	assert.Equal(t, "true", in.PriceData)
	assert.Equal(t, "true", in.ExportOutput)
	require.Len(t, in.Addresses, 1)
	assert.Equal(t, stash, in.Addresses[0].Address)
	assert.Equal(t, "Polkadot", in.Addresses[0].Network)
}

func TestRun_MirrorsCollectorCheckout(t *testing.T) {
	report := writeFixture(t, t.TempDir())

	checkout := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(checkout, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(checkout, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "config", "settings.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "config", "userInput.json"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, stash+".json"), []byte("stale"), 0o644))

	// Reads its input and writes its export relative to the working directory.
	collect := `cat config/settings.json > /dev/null || exit 4
grep -q '"address": "` + stash + `"' config/userInput.json || exit 5
cp "` + report + `" "./` + stash + `.json"
`
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "src", "collect.sh"), []byte(collect), 0o644))

	r := shellRunner(t, `sh src/collect.sh`, Options{Dir: checkout})
	got, err := r.Run(context.Background(), Request{Stash: stash, Network: "Polkadot"})
	require.NoError(t, err)
	assert.Equal(t, stash, got.Stash)
	assert.Len(t, got.EraRewards, 3)

	input, err := os.ReadFile(filepath.Join(checkout, "config", "userInput.json"))
	require.NoError(t, err)
	assert.Equal(t, "stale", string(input), "checkout input untouched")
	export, err := os.ReadFile(filepath.Join(checkout, stash+".json"))
	require.NoError(t, err)
	assert.Equal(t, "stale", string(export), "checkout export untouched")
}

func TestRun_Sentinels(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   error
	}{
		{"no rewards", `echo "No rewards found to parse"`, ErrNoRewards},
		{"too early", `echo "The start date is Too Early for price data"; exit 1`, ErrDateTooEarly},
		{"exit status", `echo boom >&2; exit 3`, ErrFailed},
		{"no report", `true`, ErrFailed},
		{"bad report", `echo '{' > "$SRC_OUTPUT_DIR/` + stash + `.json"`, ErrFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := shellRunner(t, tt.script, Options{})
			_, err := r.Run(context.Background(), Request{Stash: stash})
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	r := shellRunner(t, `exec sleep 5`, Options{Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := r.Run(context.Background(), Request{Stash: stash})
	assert.True(t, errors.Is(err, ErrFailed))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRun_EmptyStash(t *testing.T) {
	r := NewRunner(Options{})
	_, err := r.Run(context.Background(), Request{})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestRun_ConcurrentRunsIsolated(t *testing.T) {
	dir := t.TempDir()
	report := writeFixture(t, dir)
	r := shellRunner(t, `sleep 0.1; cp "`+report+`" "$SRC_OUTPUT_DIR/`+stash+`.json"`, Options{})

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := r.Run(context.Background(), Request{Stash: stash})
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestReport_KeptAfterRun(t *testing.T) {
	dir := t.TempDir()
	report := writeFixture(t, dir)
	reports := filepath.Join(dir, "reports")

	r := shellRunner(t,
		`cp "`+report+`" "$SRC_OUTPUT_DIR/`+stash+`.json" && echo "day,amount" > "$SRC_OUTPUT_DIR/`+stash+`.csv"`,
		Options{ReportsDir: reports})

	_, err := r.Report(stash, FormatCSV)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = r.Run(context.Background(), Request{Stash: stash})
	require.NoError(t, err)

	csv, err := r.Report(stash, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "day,amount\n", string(csv))

	js, err := r.Report(stash, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, fixture, string(js))
}

func TestReport_Invalid(t *testing.T) {
	r := NewRunner(Options{ReportsDir: t.TempDir()})

	_, err := r.Report(stash, "xml")
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	_, err = r.Report("../etc/passwd", FormatCSV)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	_, err = NewRunner(Options{}).Report(stash, FormatJSON)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStashRewards_UnparsableDay(t *testing.T) {
	res := SRCResult{
		Address: stash,
		Data: SRCData{List: []SRCDaily{
			{Day: "2021/01/01", AmountHumanReadable: 1, ValueFiat: 2},
		}},
	}
	got := res.StashRewards()
	require.Len(t, got.EraRewards, 1)
	assert.Equal(t, int64(0), got.EraRewards[0].Timestamp)
}

func TestStashRewards_AllZero(t *testing.T) {
	res := SRCResult{Data: SRCData{List: []SRCDaily{{Day: "01-01-2021"}}}}
	got := res.StashRewards()
	assert.NotNil(t, got.EraRewards)
	assert.Empty(t, got.EraRewards)
}
