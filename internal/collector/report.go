package collector

import (
	"time"

	"validator-explorer/internal/domain"
)

// dayLayout is the day format of the generator's daily list.
const dayLayout = "02-01-2006"

// Input is the generator's input file.
type Input struct {
	Start        string         `json:"start"` // YYYY-MM-DD
	End          string         `json:"end"`   // YYYY-MM-DD
	Currency     string         `json:"currency"`
	PriceData    string         `json:"priceData"`    // "true" or "false"
	ExportOutput string         `json:"exportOutput"` // always "true"
	Addresses    []InputAddress `json:"addresses"`
}

// InputAddress is one address the generator collects rewards for.
type InputAddress struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	StartBalance float64 `json:"startBalance"`
	Network      string  `json:"network"`
}

// SRCResult is the generator's per-address output file.
type SRCResult struct {
	Address                  string   `json:"address"`
	Network                  string   `json:"network"`
	Currency                 string   `json:"currency"`
	StartBalance             float64  `json:"startBalance"`
	FirstReward              string   `json:"firstReward"`
	LastReward               string   `json:"lastReward"`
	AnnualizedReturn         *float64 `json:"annualizedReturn"`
	CurrentValueRewardsFiat  float64  `json:"currentValueRewardsFiat"`
	TotalAmountHumanReadable float64  `json:"totalAmountHumanReadable"`
	TotalValueFiat           float64  `json:"totalValueFiat"`
	Data                     SRCData  `json:"data"`
}

// SRCData holds the daily reward list.
type SRCData struct {
	NumberRewardsParsed int        `json:"numberRewardsParsed"`
	NumberOfDays        int        `json:"numberOfDays"`
	List                []SRCDaily `json:"list"`
}

// SRCDaily is the reward of one day.
type SRCDaily struct {
	Day                 string  `json:"day"` // dd-mm-YYYY
	Price               float64 `json:"price"`
	Volume              float64 `json:"volume"`
	AmountHumanReadable float64 `json:"amountHumanReadable"`
	ValueFiat           float64 `json:"valueFiat"`
}

// StashRewards converts the daily list into a reward ledger. Days before
// the first non-zero reward are dropped; later zero days are kept. An
// unparsable day maps to timestamp 0.
func (r *SRCResult) StashRewards() *domain.StashRewards {
	out := &domain.StashRewards{
		Stash:      r.Address,
		EraRewards: []domain.StashEraReward{},
	}

	started := false
	for _, d := range r.Data.List {
		if !started && d.AmountHumanReadable == 0 {
			continue
		}
		started = true

		var ts int64
		if day, err := time.ParseInLocation(dayLayout, d.Day, time.UTC); err == nil {
			ts = day.UnixMilli()
		}

		out.EraRewards = append(out.EraRewards, domain.StashEraReward{
			Amount:    d.AmountHumanReadable,
			Timestamp: ts,
			Price:     d.Price,
			Total:     d.ValueFiat,
		})
		out.TotalInFiat += d.ValueFiat
	}
	return out
}
