package groups

import "github.com/JonMunkholm/campaignsplit/internal/core"

// Client column names.
const (
	ColClientID      = "client_id"
	ColAge           = "age"
	ColJob           = "job"
	ColMarital       = "marital"
	ColEducation     = "education"
	ColCreditDefault = "credit_default"
	ColMortgage      = "mortgage"
)

func init() {
	registerClient()
}

func registerClient() {
	output := []string{ColClientID, ColAge, ColJob, ColMarital, ColEducation, ColCreditDefault, ColMortgage}

	core.Register(core.GroupDefinition{
		Info: core.GroupInfo{
			Key:      "client",
			Label:    "Client",
			FileName: "client.csv",
			Order:    1,
		},
		Signature: []string{ColClientID, ColJob, ColEducation},
		Match:     core.MatchAll,
		// No defaulting path: every contributing table carries the full schema.
		Required: output,
		FieldSpecs: []core.FieldSpec{
			{Name: ColClientID},
			{Name: ColAge},
			{Name: ColJob, Normalizer: core.Replace(".", "", "-", "_")},
			{Name: ColMarital},
			{Name: ColEducation, Normalizer: core.Chain(
				core.Replace(".", "_"),
				core.NullIf("unknown"),
			)},
			{Name: ColCreditDefault, Normalizer: core.FlagNormalizer("yes")},
			{Name: ColMortgage, Normalizer: core.FlagNormalizer("yes")},
		},
	})
}
