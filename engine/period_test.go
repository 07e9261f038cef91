package engine_test

import (
	"testing"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// OVERLAP PRIMITIVE TESTS
// =============================================================================

func TestOverlapDays_PartialOverlap(t *testing.T) {
	// GIVEN: Two ranges sharing the last two weeks of January
	// WHEN: Computing the overlap in both argument orders
	// THEN: Both orders give the same inclusive day count

	aStart, aEnd := date(t, "2025-01-01"), date(t, "2025-01-31")
	bStart, bEnd := date(t, "2025-01-18"), date(t, "2025-02-28")

	got := engine.OverlapDays(&aStart, &aEnd, &bStart, &bEnd)
	if got != 14 {
		t.Errorf("expected 14 overlapping days, got %d", got)
	}
	reversed := engine.OverlapDays(&bStart, &bEnd, &aStart, &aEnd)
	if reversed != got {
		t.Errorf("overlap should be symmetric: %d vs %d", got, reversed)
	}
}

func TestOverlapDays_Disjoint_Zero(t *testing.T) {
	aStart, aEnd := date(t, "2025-01-01"), date(t, "2025-01-31")
	bStart, bEnd := date(t, "2025-02-01"), date(t, "2025-02-28")

	if got := engine.OverlapDays(&aStart, &aEnd, &bStart, &bEnd); got != 0 {
		t.Errorf("disjoint ranges should overlap 0 days, got %d", got)
	}
}

func TestOverlapDays_AdjacentEndpoints_OneDay(t *testing.T) {
	// Ranges are inclusive: sharing a single boundary day counts as 1.
	aStart, aEnd := date(t, "2025-01-01"), date(t, "2025-01-31")
	bStart, bEnd := date(t, "2025-01-31"), date(t, "2025-02-28")

	if got := engine.OverlapDays(&aStart, &aEnd, &bStart, &bEnd); got != 1 {
		t.Errorf("expected 1 shared day, got %d", got)
	}
}

func TestOverlapDays_Containment(t *testing.T) {
	aStart, aEnd := date(t, "2025-01-01"), date(t, "2025-12-31")
	bStart, bEnd := date(t, "2025-06-01"), date(t, "2025-06-30")

	if got := engine.OverlapDays(&aStart, &aEnd, &bStart, &bEnd); got != 30 {
		t.Errorf("contained range should contribute its own 30 days, got %d", got)
	}
}

func TestOverlapDays_MissingBound_Zero(t *testing.T) {
	aStart, aEnd := date(t, "2025-01-01"), date(t, "2025-12-31")

	if got := engine.OverlapDays(&aStart, &aEnd, nil, &aEnd); got != 0 {
		t.Errorf("nil bound should yield 0, got %d", got)
	}
	var zero engine.Date
	if got := engine.OverlapDays(&aStart, &aEnd, &zero, &aEnd); got != 0 {
		t.Errorf("zero-value bound should yield 0, got %d", got)
	}
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestPeriod_DaysAndWeeks(t *testing.T) {
	p := engine.NewPeriod(date(t, "2025-01-06"), date(t, "2025-01-19"))

	if p.Days() != 14 {
		t.Errorf("expected 14 days, got %d", p.Days())
	}
	if !approx(p.Weeks(), 2.0) {
		t.Errorf("expected 2 weeks, got %f", p.Weeks())
	}
}

func TestPeriod_Inverted_ZeroDays(t *testing.T) {
	p := engine.NewPeriod(date(t, "2025-02-01"), date(t, "2025-01-01"))
	if p.Days() != 0 {
		t.Errorf("inverted period should have 0 days, got %d", p.Days())
	}
}

func TestPeriod_Months(t *testing.T) {
	p := engine.NewPeriod(date(t, "2025-01-15"), date(t, "2025-03-02"))
	months := p.Months()
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}
	if months[0].Key() != "2025-01" || months[2].Key() != "2025-03" {
		t.Errorf("unexpected month span: %s..%s", months[0].Key(), months[2].Key())
	}
}

func TestHoursForOverlap(t *testing.T) {
	// 7 days at 40h/week is one full week of hours.
	if got := engine.HoursForOverlap(7, 40); !approx(got, 40) {
		t.Errorf("expected 40 hours, got %f", got)
	}
	// Sub-week overlaps register fractional weeks.
	if got := engine.HoursForOverlap(3, 40); !approx(got, 3.0/7.0*40) {
		t.Errorf("expected %f hours, got %f", 3.0/7.0*40, got)
	}
	if got := engine.HoursForOverlap(0, 40); got != 0 {
		t.Errorf("zero overlap should be zero hours, got %f", got)
	}
}
