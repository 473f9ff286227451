package visitors

import "math"

// vipTiers va de mayor a menor umbral de gasto total.
var vipTiers = []struct {
	level VIPLevel
	min   float64
}{
	{VIPPlatinum, 10000},
	{VIPGold, 5000},
	{VIPSilver, 2000},
	{VIPBronze, 500},
}

var vipRank = map[VIPLevel]int{
	VIPBronze:   1,
	VIPSilver:   2,
	VIPGold:     3,
	VIPPlatinum: 4,
}

// TierFor devuelve el tier que corresponde a un gasto total, o "" por
// debajo del umbral de bronze.
func TierFor(totalSpent float64) VIPLevel {
	for _, t := range vipTiers {
		if totalSpent >= t.min {
			return t.level
		}
	}
	return ""
}

// Recalculate deja los agregados del visitante en función de VisitHistory:
// cantidad, última fecha, duración media redondeada y gasto total. El tier
// solo sube; un gasto por debajo del tier actual lo deja como está.
func Recalculate(v *Visitor) {
	n := len(v.VisitHistory)
	v.TotalVisits = n

	if n == 0 {
		v.LastVisitDate = nil
		v.AverageVisitDuration = 0
		v.TotalSpent = 0
	} else {
		last := v.VisitHistory[n-1].VisitDate
		v.LastVisitDate = &last

		duration := 0
		spent := 0.0
		for _, visit := range v.VisitHistory {
			duration += visit.Duration
			spent += visit.Spending.Total
		}
		v.AverageVisitDuration = int(math.Round(float64(duration) / float64(n)))
		v.TotalSpent = spent
	}

	if tier := TierFor(v.TotalSpent); vipRank[tier] > vipRank[v.VIPLevel] {
		v.VIPLevel = tier
	}
	if v.VIPLevel == "" {
		v.VIPLevel = VIPBronze
	}
}
