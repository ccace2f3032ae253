package slot

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultTierTable_RTPCalibration(t *testing.T) {
	pt, err := NewPaytable(DefaultPaytableConfig())
	if err != nil {
		t.Fatalf("NewPaytable: %v", err)
	}

	if got := pt.tiers.TotalProbability(); math.Abs(got-1) > 1e-9 {
		t.Errorf("TotalProbability = %v, want 1", got)
	}
	if got := pt.ExpectedRTP(); math.Abs(got-pt.TargetRTP) > 0.01 {
		t.Errorf("ExpectedRTP = %v, want %v ±0.01", got, pt.TargetRTP)
	}
	if got := pt.tiers.HitRate(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("HitRate = %v, want 0.25", got)
	}
}

func TestTierTable_SelectTier(t *testing.T) {
	table := TierTable{
		{Tier: TierLoss, Probability: 0.5},
		{Tier: TierSmall, Probability: 0.3, MinMultiplier: 1, MaxMultiplier: 1, MatchCount: 3},
		{Tier: TierJackpot, Probability: 0.2, MinMultiplier: 10, MaxMultiplier: 10},
	}

	tests := []struct {
		draw float64
		want Tier
	}{
		{0, TierLoss},
		{0.4999, TierLoss},
		{0.5, TierSmall},
		{0.79, TierSmall},
		{0.8001, TierJackpot},
		{0.9999, TierJackpot},
	}
	for _, tt := range tests {
		got, ok := table.selectTier(tt.draw)
		if !ok || got != tt.want {
			t.Errorf("selectTier(%v) = %v, %v, want %v", tt.draw, got, ok, tt.want)
		}
	}
}

func TestTierTable_FallsBackToLoss(t *testing.T) {
	// 概率之和不足时不会越界，返回未中奖
	table := TierTable{
		{Tier: TierSmall, Probability: 0.3, MinMultiplier: 1, MaxMultiplier: 1, MatchCount: 3},
	}
	got, ok := table.selectTier(0.9)
	if ok || got != TierLoss {
		t.Errorf("selectTier(0.9) = %v, %v, want loss, false", got, ok)
	}
	if table.DetermineOutcome(NewSeededRandomGenerator(7)) < TierLoss {
		t.Error("DetermineOutcome returned invalid tier")
	}
}

func TestTierTable_Multiplier(t *testing.T) {
	table := TierTable{
		{Tier: TierLoss, Probability: 0.5},
		{Tier: TierSmall, Probability: 0.4, MinMultiplier: 1.0, MaxMultiplier: 1.5, MatchCount: 3},
		{Tier: TierJackpot, Probability: 0.1, MinMultiplier: 65, MaxMultiplier: 65},
	}
	rng := NewSeededRandomGenerator(3)

	for i := 0; i < 1000; i++ {
		m := table.Multiplier(TierSmall, rng)
		if m < 1.0 || m > 1.5 {
			t.Fatalf("Multiplier(small) = %v out of range", m)
		}
		if math.Abs(m*100-math.Round(m*100)) > 1e-9 {
			t.Fatalf("Multiplier(small) = %v not rounded to 2 decimals", m)
		}
	}
	if got := table.Multiplier(TierJackpot, rng); got != 65 {
		t.Errorf("Multiplier(jackpot) = %v, want 65", got)
	}
	if got := table.Multiplier(TierLoss, rng); got != 0 {
		t.Errorf("Multiplier(loss) = %v, want 0", got)
	}
	if got := table.Multiplier(TierHuge, rng); got != 0 {
		t.Errorf("Multiplier(missing tier) = %v, want 0", got)
	}
}

func TestTierTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		table TierTable
	}{
		{"空表", TierTable{}},
		{"概率之和不为1", TierTable{{Tier: TierLoss, Probability: 0.6}, {Tier: TierSmall, Probability: 0.3, MinMultiplier: 1, MaxMultiplier: 2, MatchCount: 3}}},
		{"重复档位", TierTable{{Tier: TierLoss, Probability: 0.5}, {Tier: TierLoss, Probability: 0.5}}},
		{"倍率区间颠倒", TierTable{{Tier: TierLoss, Probability: 0.5}, {Tier: TierSmall, Probability: 0.5, MinMultiplier: 2, MaxMultiplier: 1, MatchCount: 3}}},
		{"未中奖档位有倍率", TierTable{{Tier: TierLoss, Probability: 1, MaxMultiplier: 1}}},
		{"缺少未中奖档位", TierTable{{Tier: TierSmall, Probability: 1, MinMultiplier: 1, MaxMultiplier: 1, MatchCount: 3}}},
		{"中奖数量为0", TierTable{{Tier: TierLoss, Probability: 0.5}, {Tier: TierSmall, Probability: 0.5, MinMultiplier: 1, MaxMultiplier: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.table.validate(); !errors.Is(err, ErrInvalidTierTable) {
				t.Errorf("validate() = %v, want ErrInvalidTierTable", err)
			}
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range AllTiers {
		got, err := ParseTier(tier.String())
		if err != nil || got != tier {
			t.Errorf("ParseTier(%q) = %v, %v", tier.String(), got, err)
		}
	}
	if _, err := ParseTier("mega"); !errors.Is(err, ErrInvalidTierTable) {
		t.Errorf("ParseTier(mega) err = %v", err)
	}

	var tier Tier
	if err := tier.UnmarshalText([]byte("Huge")); err != nil || tier != TierHuge {
		t.Errorf("UnmarshalText(Huge) = %v, %v", tier, err)
	}
}
