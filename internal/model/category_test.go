package model

import "testing"

func TestCategoryForCount(t *testing.T) {
	cases := []struct {
		count int
		want  Category
	}{
		{0, CategoryNoPeople},
		{1, CategorySingle},
		{2, CategoryTwo},
		{3, CategoryGroup},
		{4, CategoryGroup},
		{17, CategoryGroup},
		{-1, CategoryNoPeople},
	}

	for _, c := range cases {
		if got := CategoryForCount(c.count); got != c.want {
			t.Errorf("CategoryForCount(%d) = %q, want %q", c.count, got, c.want)
		}
	}
}

func TestCategoriesOrder(t *testing.T) {
	want := []Category{CategoryNoPeople, CategorySingle, CategoryTwo, CategoryGroup}
	got := Categories()

	if len(got) != len(want) {
		t.Fatalf("Expected %d categories, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Category %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunStatsPercent_EmptyRun(t *testing.T) {
	stats := RunStats{Total: 0}

	// Must not divide by zero; an empty run reads as complete.
	if got := stats.Percent(); got != 100 {
		t.Errorf("Percent() = %d, want 100", got)
	}
	if !stats.Done() {
		t.Error("Expected empty run to be done")
	}
}

func TestRunStatsPercent(t *testing.T) {
	cases := []struct {
		total, processed, failed, want int
	}{
		{10, 0, 0, 0},
		{10, 5, 0, 50},
		{10, 4, 1, 50},
		{10, 9, 1, 100},
		{12, 3, 0, 25},
	}

	for _, c := range cases {
		stats := RunStats{Total: c.total, Processed: c.processed, Failed: c.failed}
		if got := stats.Percent(); got != c.want {
			t.Errorf("Percent() with %d+%d of %d = %d, want %d", c.processed, c.failed, c.total, got, c.want)
		}
	}
}

func TestRunStatsDone(t *testing.T) {
	stats := RunStats{Total: 3, Processed: 1, Failed: 1}
	if stats.Done() {
		t.Error("Run with pending images should not be done")
	}

	stats.Failed++
	if !stats.Done() {
		t.Error("Run with all images accounted for should be done")
	}
}
