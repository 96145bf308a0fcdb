package models

import "testing"

func TestRankOrder(t *testing.T) {
	if RankOrder("Iron 1") != 1 {
		t.Errorf("Iron 1 must be first, got %d", RankOrder("Iron 1"))
	}
	if RankOrder("Radiant") != len(PublicRanks) {
		t.Errorf("Radiant must be last, got %d", RankOrder("Radiant"))
	}
	if RankOrder("Copper 1") != 0 {
		t.Error("unknown rank must map to 0")
	}
}

func TestAverageRank(t *testing.T) {
	if got := AverageRank(nil); got != DefaultRank {
		t.Errorf("empty input: got %s", got)
	}
	if got := AverageRank([]string{"Gold 1"}); got != "Gold 1" {
		t.Errorf("single rank: got %s", got)
	}
	// Неизвестные ранги игнорируются, а не тянут среднее вниз.
	if got := AverageRank([]string{"Gold 1", "nonsense"}); got != "Gold 1" {
		t.Errorf("unknown rank ignored: got %s", got)
	}
	if got := AverageRank([]string{"nonsense"}); got != DefaultRank {
		t.Errorf("all unknown: got %s", got)
	}
}

func TestMapPool(t *testing.T) {
	if !IsValidMap("Ascent") {
		t.Error("Ascent must be in the pool")
	}
	if IsValidMap("Dust2") {
		t.Error("Dust2 must not be in the pool")
	}
	invalid := InvalidMaps([]string{"Ascent", "Dust2", "Mirage"})
	if len(invalid) != 2 {
		t.Fatalf("expected 2 invalid maps, got %v", invalid)
	}
}
