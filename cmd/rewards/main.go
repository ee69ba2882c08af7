// Package main is a one-shot CLI over the reward data of a chain: it values
// a stash's rewards, runs the rewards collector, or imports daily prices.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"validator-explorer/cmd"
	"validator-explorer/internal/collector"
	"validator-explorer/internal/config"
	"validator-explorer/internal/domain"
	"validator-explorer/internal/pricecache"
	"validator-explorer/internal/rewards"
	"validator-explorer/internal/ss58"
	"validator-explorer/internal/storage"
)

var (
	chainFlag = &cli.StringFlag{
		Name:     "chain",
		Usage:    "Chain alias, e.g. DOT or KSM",
		Required: true,
	}

	stashFlag = &cli.StringFlag{
		Name:     "stash",
		Usage:    "SS58 address of the stash",
		Required: true,
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: json or csv",
		Value: collector.FormatJSON,
	}

	fileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    `JSON array of {"timestamp": <unix seconds>, "price": <float>}; "-" reads stdin`,
		Required: true,
	}
)

func main() {
	app := cli.App{
		Name:  "rewards",
		Usage: "values staking rewards of a stash",
		Flags: []cli.Flag{
			cmd.ConfigPathFlag,
			cmd.VerbosityFlag,
			cmd.LogFormatFlag,
			cmd.UseMemoryFlag,
		},
		Commands: []*cli.Command{
			{
				Name:   "value",
				Usage:  "value the reward ledger of a stash at daily prices",
				Flags:  []cli.Flag{chainFlag, stashFlag, formatFlag},
				Action: value,
			},
			{
				Name:  "collect",
				Usage: "run the external rewards collector for a stash",
				Flags: []cli.Flag{
					chainFlag,
					stashFlag,
					formatFlag,
					&cli.StringFlag{Name: "start", Usage: "first day, YYYY-MM-DD"},
					&cli.StringFlag{Name: "end", Usage: "last day, YYYY-MM-DD"},
					&cli.StringFlag{Name: "currency", Usage: "fiat currency", Value: "USD"},
					&cli.Float64Flag{Name: "start-balance", Usage: "balance before the first reward"},
				},
				Action: collect,
			},
			{
				Name:   "import-prices",
				Usage:  "upsert daily prices into the chain's price store",
				Flags:  []cli.Flag{chainFlag, fileFlag},
				Action: importPrices,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("running rewards failed")
	}
}

func value(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	stash, err := stashArg(c)
	if err != nil {
		return err
	}

	cfg, log, err := cmd.Setup(c)
	if err != nil {
		return err
	}
	stores, alias, closeFn, err := openChain(c, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	engine := rewards.NewEngine(rewards.Options{
		Rewards:    stores.Rewards,
		Nominators: stores.Nominators,
		Prices:     pricecache.New(alias, stores.Prices, cfg.Prices.CacheSize, cfg.Prices.CacheTTL),
		Log:        log,
	})
	r, err := engine.StashRewards(c.Context, stash)
	if err != nil {
		return err
	}
	return write(c.App.Writer, format, r)
}

func collect(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	stash, err := stashArg(c)
	if err != nil {
		return err
	}

	cfg, log, err := cmd.Setup(c)
	if err != nil {
		return err
	}
	chain, ok := cfg.Chain(c.String(chainFlag.Name))
	if !ok {
		return fmt.Errorf("chain %s: %w", c.String(chainFlag.Name), storage.ErrNotFound)
	}

	runner := collector.NewRunner(collector.Options{
		Dir:        cfg.Collector.Dir,
		Command:    cfg.Collector.Command,
		Timeout:    cfg.Collector.Timeout,
		ReportsDir: cfg.Collector.ReportsDir,
		Log:        log,
	})
	r, err := runner.Run(c.Context, collector.Request{
		Stash:        stash,
		Network:      chain.Name,
		Start:        c.String("start"),
		End:          c.String("end"),
		Currency:     c.String("currency"),
		StartBalance: c.Float64("start-balance"),
	})
	if err != nil {
		return err
	}
	return write(c.App.Writer, format, r)
}

func importPrices(c *cli.Context) error {
	cfg, log, err := cmd.Setup(c)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if path := c.String(fileFlag.Name); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open prices: %w", err)
		}
		defer f.Close()
		in = f
	}

	var prices []domain.CoinPrice
	if err := json.NewDecoder(in).Decode(&prices); err != nil {
		return fmt.Errorf("decode prices: %w", err)
	}

	stores, alias, closeFn, err := openChain(c, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	for i := range prices {
		p := prices[i]
		p.TimestampDay = pricecache.DayOf(p.TimestampDay * 1000)
		if err := stores.Prices.Upsert(c.Context, &p); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"chain":  alias,
		"prices": len(prices),
	}).Info("prices imported")
	return nil
}

func openChain(c *cli.Context, cfg *config.Config, log *logrus.Entry) (*storage.Stores, string, func(), error) {
	chain, ok := cfg.Chain(c.String(chainFlag.Name))
	if !ok {
		return nil, "", nil, fmt.Errorf("chain %s: %w", c.String(chainFlag.Name), storage.ErrNotFound)
	}
	cfg.Chains = []config.ChainConfig{chain}

	b, err := cmd.OpenBackends(c.Context, cfg, c.Bool(cmd.UseMemoryFlag.Name), log)
	if err != nil {
		return nil, "", nil, err
	}
	alias := strings.ToUpper(chain.Alias)
	return b.Chains[alias], alias, b.Close, nil
}

func outputFormat(c *cli.Context) (string, error) {
	switch f := c.String(formatFlag.Name); f {
	case collector.FormatJSON, collector.FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("format %q: %w", f, storage.ErrInvalidInput)
	}
}

func stashArg(c *cli.Context) (string, error) {
	stash := c.String(stashFlag.Name)
	if !ss58.Valid(stash) {
		return "", fmt.Errorf("stash %q: %w", stash, storage.ErrInvalidInput)
	}
	return stash, nil
}

func write(w io.Writer, format string, r *domain.StashRewards) error {
	if format == collector.FormatCSV {
		_, err := io.WriteString(w, rewards.RenderCSV(r))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
