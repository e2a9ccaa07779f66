package orders

// ComputeProfit derives profit and profit margin from the selling and cost
// prices. Profit may be negative. The margin is profit as a percentage of
// the selling price and is zero when SP is zero.
//
// The coordinator invokes this on every create and on every update that
// touches SP or CP; the results are never cached apart from their inputs.
func ComputeProfit(sp, cp float64) (profit, profitPercentage float64) {
	profit = sp - cp
	if sp > 0 {
		profitPercentage = profit / sp * 100
	}
	return profit, profitPercentage
}
