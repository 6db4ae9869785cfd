package places

import "github.com/eggrates/eggrate/pkg/domain"

// RemovalResult reports an administrative city/state removal.
//
// Warning carries a legacy-table failure; the normalized rows are
// gone regardless.
type RemovalResult struct {
	CitiesDeleted int64  `json:"citiesDeleted"`
	FactsDeleted  int64  `json:"factsDeleted"`
	LegacyDeleted int64  `json:"legacyDeleted"`
	Warning       string `json:"warning,omitempty"`
}

func ComposeRemovalResult(receipt domain.RemovalReceipt) RemovalResult {
	warning := ""
	if receipt.LegacyErr != nil {
		warning = "normalized rows removed; some legacy rows may remain"
	}
	return RemovalResult{
		CitiesDeleted: receipt.CitiesDeleted,
		FactsDeleted:  receipt.FactsDeleted,
		LegacyDeleted: receipt.LegacyDeleted,
		Warning:       warning,
	}
}
