package groups

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/campaignsplit/internal/core"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// Campaign column names.
const (
	ColNumberContacts           = "number_contacts"
	ColContactDuration          = "contact_duration"
	ColPreviousCampaignContacts = "previous_campaign_contacts"
	ColPreviousOutcome          = "previous_outcome"
	ColCampaignOutcome          = "campaign_outcome"
	ColDay                      = "day"
	ColMonth                    = "month"
	ColLastContactDate          = "last_contact_date"

	// Misspelling found in older exports.
	aliasPreviousCampaignContacts = "previous_campaing_contacts"
)

func init() {
	registerCampaign()
}

func registerCampaign() {
	core.Register(core.GroupDefinition{
		Info: core.GroupInfo{
			Key:      "campaign",
			Label:    "Campaign",
			FileName: "campaign.csv",
			Order:    2,
		},
		// Campaign fields are the ones most often split across exports, so
		// any partial campaign signal qualifies a table.
		Signature: []string{ColNumberContacts, ColCampaignOutcome},
		Match:     core.MatchAny,
		Reconcile: reconcileCampaign,
		FieldSpecs: []core.FieldSpec{
			{Name: ColClientID},
			{Name: ColNumberContacts},
			{Name: ColContactDuration},
			{Name: ColPreviousCampaignContacts},
			{Name: ColPreviousOutcome, Normalizer: core.FlagNormalizer("success")},
			{Name: ColCampaignOutcome, Normalizer: core.FlagNormalizer("yes")},
			{
				Name:      ColLastContactDate,
				Derive:    lastContactDate,
				DependsOn: []string{ColMonth, ColDay},
			},
		},
	})
}

// reconcileCampaign runs on the unified campaign table, in this order.
func reconcileCampaign(t *table.Table) {
	if !core.Alias(t, ColPreviousCampaignContacts, aliasPreviousCampaignContacts) {
		core.Default(t, "0", ColPreviousCampaignContacts)
	}
	core.Default(t, "0", ColContactDuration, ColPreviousOutcome, ColCampaignOutcome)
	core.Default(t, "01", ColDay, ColMonth)
}

func lastContactDate(row table.Row) pgtype.Text {
	return core.ContactDate(row.Get(ColMonth), row.Get(ColDay))
}
