package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeProfit(t *testing.T) {
	cases := []struct {
		name       string
		sp, cp     float64
		profit     float64
		percentage float64
	}{
		{"typical margin", 1500, 1000, 500, 100.0 * 500 / 1500},
		{"zero cost", 100, 0, 100, 100},
		{"break even", 250, 250, 0, 0},
		{"negative profit", 80, 100, -20, -25},
		{"zero selling price", 0, 50, -50, 0},
		{"both zero", 0, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profit, percentage := ComputeProfit(tc.sp, tc.cp)
			require.Equal(t, tc.profit, profit)
			require.InDelta(t, tc.percentage, percentage, 1e-9)
		})
	}
}

func TestComputeProfitNeverDividesByZero(t *testing.T) {
	profit, percentage := ComputeProfit(0, 123.45)
	require.Equal(t, -123.45, profit)
	require.Zero(t, percentage)
}

func TestComputeProfitMatchesDefinition(t *testing.T) {
	inputs := []struct{ sp, cp float64 }{
		{1, 0}, {10, 3}, {99.99, 100}, {1234.56, 789.01}, {0.01, 0.02},
	}
	for _, in := range inputs {
		profit, percentage := ComputeProfit(in.sp, in.cp)
		require.Equal(t, in.sp-in.cp, profit)
		require.InDelta(t, (in.sp-in.cp)/in.sp*100, percentage, 1e-9)
	}
}
