package risk

import (
	"github.com/finsim/finsim/internal/analytics"
)

// Snapshot holds one period of statement values for one entity.
// Fields the data source did not provide are left invalid.
type Snapshot struct {
	Entity             string
	Period             int
	Revenue            analytics.Observation
	NetIncome          analytics.Observation
	GrossProfit        analytics.Observation
	OperatingIncome    analytics.Observation
	EBITDA             analytics.Observation
	TotalAssets        analytics.Observation
	TotalLiabilities   analytics.Observation
	ShareholdersEquity analytics.Observation
	CurrentAssets      analytics.Observation
	CurrentLiabilities analytics.Observation
	LongTermDebt       analytics.Observation
}

// Ratios are point-in-time financial ratios. A nil field means an input
// was missing; a non-nil undefined Ratio means its denominator was zero.
type Ratios struct {
	Entity             string           `json:"entity"`
	Period             int              `json:"period"`
	NetMarginPercent   *analytics.Ratio `json:"net_margin_percent,omitempty"`
	GrossMarginPercent *analytics.Ratio `json:"gross_margin_percent,omitempty"`
	EBITDAMarginPct    *analytics.Ratio `json:"ebitda_margin_percent,omitempty"`
	CurrentRatio       *analytics.Ratio `json:"current_ratio,omitempty"`
	DebtRatioPercent   *analytics.Ratio `json:"debt_ratio_percent,omitempty"`
	DebtToEBITDA       *analytics.Ratio `json:"debt_to_ebitda,omitempty"`
	ReturnOnEquityPct  *analytics.Ratio `json:"roe_percent,omitempty"`
	ReturnOnAssetsPct  *analytics.Ratio `json:"roa_percent,omitempty"`
}

// ComputeRatios derives every ratio whose inputs are present
func ComputeRatios(s Snapshot) Ratios {
	return Ratios{
		Entity:             s.Entity,
		Period:             s.Period,
		NetMarginPercent:   ratioOf(s.NetIncome, s.Revenue, 100),
		GrossMarginPercent: ratioOf(s.GrossProfit, s.Revenue, 100),
		EBITDAMarginPct:    ratioOf(s.EBITDA, s.Revenue, 100),
		CurrentRatio:       ratioOf(s.CurrentAssets, s.CurrentLiabilities, 1),
		DebtRatioPercent:   ratioOf(s.TotalLiabilities, s.TotalAssets, 100),
		DebtToEBITDA:       ratioOf(s.LongTermDebt, s.EBITDA, 1),
		ReturnOnEquityPct:  ratioOf(s.NetIncome, s.ShareholdersEquity, 100),
		ReturnOnAssetsPct:  ratioOf(s.OperatingIncome, s.TotalAssets, 100),
	}
}

func ratioOf(num, den analytics.Observation, scale float64) *analytics.Ratio {
	if !num.Usable() || !den.Usable() {
		return nil
	}
	r := analytics.Divide(num.Value, den.Value).Scale(scale)
	return &r
}
