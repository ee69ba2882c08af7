package rewards

import (
	"fmt"
	"strings"

	"validator-explorer/internal/domain"
)

// RenderCSV renders a stash's valued rewards as CSV.
func RenderCSV(r *domain.StashRewards) string {
	var sb strings.Builder

	sb.WriteString("era,amount,timestamp,price,total\n")
	for _, e := range r.EraRewards {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%d,%.6f,%.6f\n",
			e.Era,
			e.Amount,
			e.Timestamp,
			e.Price,
			e.Total,
		))
	}

	return sb.String()
}
