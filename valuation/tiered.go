/*
tiered.go - Tiered base-remuneration formula

PURPOSE:
  The auxiliary banded remuneration basis: the total area is split across
  fixed-width bands and each band contributes band area × unit cost ×
  a material-dependent rate. Independent of the main valuation cascade -
  the two compute related but distinct quantities and both are kept.

BANDS (default tables):
  0-100 m²    Masonry 4%   Wood/Mixed 2%
  100-200 m²  Masonry 8%   Wood/Mixed 5%
  200-300 m²  Masonry 14%  Wood/Mixed 11%
  over 300 m² Masonry 20%  Wood/Mixed 15%
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/rules"
)

// TieredRemuneration sums the band contributions for a total area. Unknown
// materials contribute nothing (every band rate resolves to 0).
func TieredRemuneration(totalArea, unitCost decimal.Decimal, material Material, rs *rules.RuleSet) decimal.Decimal {
	remaining := totalArea
	total := decimal.Zero

	for _, band := range rs.TieredBands {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		slice := remaining
		if band.Width != nil && slice.GreaterThan(*band.Width) {
			slice = *band.Width
		}
		rate := band.Rates[string(material)]
		total = total.Add(slice.Mul(unitCost).Mul(rate))
		remaining = remaining.Sub(slice)
	}
	return total
}
