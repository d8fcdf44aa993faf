// Package planner builds alternative stake allocations from a value report.
package planner

import (
	"errors"
	"math"
	"sort"

	"github.com/rewired-gh/matchhedge/internal/mathutil"
	"github.com/rewired-gh/matchhedge/internal/models"
)

// Plan tuning constants.
const (
	conservativeMinValue    = 5.0
	conservativeBetCap      = 0.15
	conservativeStakeGrowth = 1.2
	conservativeFloor       = 0.60

	balancedMinValue    = 3.0
	balancedMinWeight   = 0.1
	balancedValueScale  = 20.0
	balancedStakeFactor = 0.8
	balancedFloor       = 0.70

	aggressiveTopWeight   = 0.30
	aggressiveWeightStep  = 0.05
	aggressiveFloorWeight = 0.15
)

// Names lists the plans in presentation order.
var Names = []models.PlanName{
	models.PlanConservative,
	models.PlanBalanced,
	models.PlanAggressive,
	models.PlanCurrent,
}

// Build produces every named plan for the bankroll.
func Build(report models.ValueReport, bankroll float64) (map[models.PlanName]models.AllocationPlan, error) {
	if bankroll < 0 || math.IsNaN(bankroll) || math.IsInf(bankroll, 0) {
		return nil, errors.New("bankroll must be a non-negative number")
	}

	ranked := report.Ordered()
	return map[models.PlanName]models.AllocationPlan{
		models.PlanConservative: measure(models.PlanConservative, conservative(ranked, bankroll), report, bankroll),
		models.PlanBalanced:     measure(models.PlanBalanced, balanced(ranked, bankroll), report, bankroll),
		models.PlanAggressive:   measure(models.PlanAggressive, aggressive(ranked, bankroll), report, bankroll),
		models.PlanCurrent:      measure(models.PlanCurrent, current(ranked), report, bankroll),
	}, nil
}

func conservative(assessments []models.ValueAssessment, bankroll float64) map[models.BetType]float64 {
	plan := make(map[models.BetType]float64)
	total := 0.0
	for _, a := range assessments {
		if a.ValuePercent > conservativeMinValue {
			stake := math.Min(bankroll*conservativeBetCap, a.Stake*conservativeStakeGrowth)
			plan[a.Type] = stake
			total += stake
		}
	}

	target := bankroll * conservativeFloor
	if total >= target {
		return plan
	}
	if bt, ok := bestPositive(assessments, func(bt models.BetType) bool {
		_, in := plan[bt]
		return !in
	}); ok {
		plan[bt] = target - total
		return plan
	}
	if bt, ok := bestPositive(assessments, func(models.BetType) bool { return true }); ok {
		plan[bt] += target - total
	}
	return plan
}

func balanced(assessments []models.ValueAssessment, bankroll float64) map[models.BetType]float64 {
	plan := make(map[models.BetType]float64)
	total := 0.0
	for _, a := range assessments {
		if a.ValuePercent > balancedMinValue {
			weight := math.Max(balancedMinWeight, a.ValuePercent/balancedValueScale)
			stake := bankroll * weight * balancedStakeFactor
			plan[a.Type] = stake
			total += stake
		}
	}
	if len(plan) == 0 {
		if bt, ok := bestPositive(assessments, func(models.BetType) bool { return true }); ok {
			stake := bankroll * balancedMinWeight * balancedStakeFactor
			plan[bt] = stake
			total = stake
		}
	}

	target := bankroll * balancedFloor
	if total > 0 && total < target {
		factor := target / total
		for bt := range plan {
			plan[bt] *= factor
		}
	}
	return plan
}

func aggressive(assessments []models.ValueAssessment, bankroll float64) map[models.BetType]float64 {
	positive := make([]models.ValueAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.ValuePercent > 0 {
			positive = append(positive, a)
		}
	}
	// stable: equal values keep catalog order
	sort.SliceStable(positive, func(i, j int) bool {
		return positive[i].ValuePercent > positive[j].ValuePercent
	})

	plan := make(map[models.BetType]float64, len(positive))
	for i, a := range positive {
		weight := math.Max(aggressiveFloorWeight, aggressiveTopWeight-aggressiveWeightStep*float64(i))
		plan[a.Type] = bankroll * weight
	}
	return plan
}

func current(assessments []models.ValueAssessment) map[models.BetType]float64 {
	plan := make(map[models.BetType]float64, len(assessments))
	for _, a := range assessments {
		plan[a.Type] = a.Stake
	}
	return plan
}

// bestPositive returns the highest-value positive bet accepted by keep.
// Ties go to the earlier catalog entry.
func bestPositive(assessments []models.ValueAssessment, keep func(models.BetType) bool) (models.BetType, bool) {
	var best models.ValueAssessment
	found := false
	for _, a := range assessments {
		if a.ValuePercent <= 0 || !keep(a.Type) {
			continue
		}
		if !found || a.ValuePercent > best.ValuePercent {
			best = a
			found = true
		}
	}
	return best.Type, found
}

func measure(name models.PlanName, allocations map[models.BetType]float64, report models.ValueReport, bankroll float64) models.AllocationPlan {
	plan := models.AllocationPlan{Name: name, Allocations: allocations}

	variance := 0.0
	for _, bt := range models.BetTypes {
		stake, ok := allocations[bt]
		if !ok {
			continue
		}
		plan.TotalStake += stake
		a, ok := report.Assessments[bt]
		if !ok {
			continue
		}
		p := a.RealProbability / 100
		plan.ExpectedValue += p*a.Odds*stake - stake
		variance += stake * stake * (a.Odds - 1) * (a.Odds - 1) * p * (1 - p)
	}

	plan.StdDev = math.Sqrt(variance)
	if plan.TotalStake > 0 {
		plan.ExpectedROI = plan.ExpectedValue / plan.TotalStake * 100
	}
	if plan.StdDev > 0 {
		plan.ProbabilityOfProfit = mathutil.NormalCDF(plan.ExpectedValue/plan.StdDev) * 100
	} else {
		plan.ProbabilityOfProfit = mathutil.ProfitProbabilityBucket(0)
	}
	if bankroll > 0 {
		plan.BankrollUtilization = plan.TotalStake / bankroll * 100
	}
	return plan
}
