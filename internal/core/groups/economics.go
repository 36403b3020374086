package groups

import "github.com/JonMunkholm/campaignsplit/internal/core"

// Economics column names.
const (
	ColConsPriceIdx       = "cons_price_idx"
	ColEuriborThreeMonths = "euribor_three_months"
)

func init() {
	registerEconomics()
}

func registerEconomics() {
	core.Register(core.GroupDefinition{
		Info: core.GroupInfo{
			Key:      "economics",
			Label:    "Economics",
			FileName: "economics.csv",
			Order:    3,
		},
		Signature: []string{ColConsPriceIdx, ColEuriborThreeMonths},
		Match:     core.MatchAll,
		// Checked on every source table before concatenation: one economics
		// table without client_id fails the run even if another carries it.
		Required: []string{ColClientID, ColConsPriceIdx, ColEuriborThreeMonths},
		FieldSpecs: []core.FieldSpec{
			{Name: ColClientID},
			{Name: ColConsPriceIdx},
			{Name: ColEuriborThreeMonths},
		},
	})
}
