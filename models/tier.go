package models

// Tier представляет уровень доступа аккаунта или контента.
// Порядок: public < tier_3 < tier_2 < tier_1.
type Tier string

const (
	TierPublic Tier = "public"
	Tier3      Tier = "tier_3"
	Tier2      Tier = "tier_2"
	Tier1      Tier = "tier_1"
)

var tierLevels = map[Tier]int{
	TierPublic: 0,
	Tier3:      1,
	Tier2:      2,
	Tier1:      3,
}

// AllTiers перечислены от низшего к высшему.
var AllTiers = []Tier{TierPublic, Tier3, Tier2, Tier1}

func (t Tier) IsValid() bool {
	_, ok := tierLevels[t]
	return ok
}

// Level возвращает числовой ранг тира. Неизвестный тир считается public.
func (t Tier) Level() int {
	return tierLevels[t]
}

// Above сообщает, является ли тир строго выше other.
func (t Tier) Above(other Tier) bool {
	return t.Level() > other.Level()
}

// CanAccess сообщает, виден ли контент с тиром content обладателю тира t.
// Аккаунт видит свой тир и всё, что ниже; public виден всем.
func (t Tier) CanAccess(content Tier) bool {
	return t.Level() >= content.Level()
}

// AccessibleTiers возвращает все тиры, контент которых доступен тиру t,
// от низшего к высшему.
func (t Tier) AccessibleTiers() []Tier {
	tiers := make([]Tier, 0, len(AllTiers))
	for _, candidate := range AllTiers {
		if t.CanAccess(candidate) {
			tiers = append(tiers, candidate)
		}
	}
	return tiers
}
