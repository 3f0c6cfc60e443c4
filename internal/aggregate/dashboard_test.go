package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/core"
)

func TestBuild(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	state := State{
		Transactions: sampleTransactions(),
		Investments: []core.Investment{
			{Name: "Tesouro", Type: core.AssetFixedIncome, InvestedAmount: dec("1000"), CurrentValue: dec("1200")},
		},
		Goals: []core.Goal{
			{Title: "Viagem", TargetAmount: dec("1000"), CurrentAmount: dec("400"), Deadline: core.NewDate(2024, 5, 1)},
			{Title: "Carro", TargetAmount: dec("1000"), CurrentAmount: dec("100")},
		},
		Period:       CurrentPeriod(now),
		Capabilities: AllCapabilities(),
	}
	before := len(state.Transactions)

	d := Build(state, now)

	assert.Len(t, d.Transactions, 2)
	assert.True(t, d.Summary.Net.Equal(dec("60")))
	require.Len(t, d.ByCategory, 1)
	assert.Equal(t, core.CategoryFood, d.ByCategory[0].Category)

	require.NotNil(t, d.Investments)
	assert.True(t, d.Investments.Summary.YieldPercent.Equal(dec("20")))
	require.Len(t, d.Investments.Holdings, 1)
	assert.True(t, d.Investments.Holdings[0].Return.Profit.Equal(dec("200")))

	require.Len(t, d.Goals, 2)
	assert.True(t, d.Goals[0].Overdue)
	assert.False(t, d.Goals[1].Overdue)
	assert.Nil(t, d.Goals[1].Progress.DaysRemaining)

	assert.Len(t, state.Transactions, before)
}

func TestBuildDisabledSections(t *testing.T) {
	state := State{
		Transactions: sampleTransactions(),
		Investments:  []core.Investment{{InvestedAmount: dec("1"), CurrentValue: dec("2")}},
		Goals:        []core.Goal{{TargetAmount: dec("1")}},
		Period:       Period{Year: 2024, Month: time.June},
	}

	d := Build(state, time.Now())
	assert.Nil(t, d.Investments)
	assert.Nil(t, d.Goals)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "investments")
	assert.NotContains(t, m, "goals")
	assert.Equal(t, "2024-06", m["period"])
}
