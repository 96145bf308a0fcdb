package models

// PublicRanks - полная ранговая лестница, доступная аккаунтам тира public.
var PublicRanks = []string{
	"Iron 1", "Iron 2", "Iron 3",
	"Bronze 1", "Bronze 2", "Bronze 3",
	"Silver 1", "Silver 2", "Silver 3",
	"Gold 1", "Gold 2", "Gold 3",
	"Platinum 1", "Platinum 2", "Platinum 3",
	"Diamond 1", "Diamond 2", "Diamond 3",
	"Ascendant 1", "Ascendant 2", "Ascendant 3",
	"Immortal 1", "Immortal 2", "Immortal 3",
	"Radiant",
}

// TierRanks - ранги, отображаемые аккаунтам закрытых тиров.
var TierRanks = []string{
	"Ascendant 1", "Ascendant 2", "Ascendant 3",
	"Immortal 1", "Immortal 2", "Immortal 3",
	"Radiant",
}

var rankOrder = func() map[string]int {
	m := make(map[string]int, len(PublicRanks))
	for i, rank := range PublicRanks {
		m[rank] = i + 1
	}
	return m
}()

const DefaultRank = "Iron 1"

// RankOrder возвращает числовой порядок ранга (1 = Iron 1).
// Неизвестный ранг получает 0.
func RankOrder(rank string) int {
	return rankOrder[rank]
}

// AverageRank вычисляет отображаемый средний ранг по списку рангов участников.
// Это display-only агрегат: на бизнес-логику он не влияет.
func AverageRank(ranks []string) string {
	if len(ranks) == 0 {
		return DefaultRank
	}
	sum := 0
	counted := 0
	for _, rank := range ranks {
		if order := RankOrder(rank); order > 0 {
			sum += order
			counted++
		}
	}
	if counted == 0 {
		return DefaultRank
	}
	avg := sum / counted
	if avg < 1 {
		avg = 1
	}
	return PublicRanks[avg-1]
}
