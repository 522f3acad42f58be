package service

import (
	"testing"
	"time"

	"clarita-backend/internal/model"
)

func attemptOn(day time.Time, score, total int, pct float64) model.QuizAttempt {
	return model.QuizAttempt{
		Score:          score,
		TotalQuestions: total,
		Percentage:     pct,
		CompletedAt:    day,
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, 4, time.Now())
	if stats.TotalQuizzesTaken != 0 || stats.CurrentStreak != 0 || stats.MaxStreak != 0 {
		t.Errorf("empty history should yield zeros, got %+v", stats)
	}
	if stats.AccuracyRate != 0 || stats.AverageScore != 0 {
		t.Errorf("empty history should yield zero rates, got %+v", stats)
	}
	if stats.TotalQuizzesGenerated != 4 {
		t.Errorf("generated = %d, want 4", stats.TotalQuizzesGenerated)
	}
}

func TestComputeStatisticsStreaks(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return base.AddDate(0, 0, offset) }

	// Attempts on days 0, 1, 2, then a gap, then 5 and 6.
	attempts := []model.QuizAttempt{
		attemptOn(day(0), 8, 10, 80),
		attemptOn(day(1), 9, 10, 90),
		attemptOn(day(2), 7, 10, 70),
		attemptOn(day(5), 10, 10, 100),
		attemptOn(day(6), 6, 10, 60),
	}

	now := day(6).Add(3 * time.Hour)
	stats := ComputeStatistics(attempts, 5, now)

	if stats.MaxStreak != 3 {
		t.Errorf("max streak = %d, want 3", stats.MaxStreak)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("current streak = %d, want 2", stats.CurrentStreak)
	}
	if stats.TotalQuizzesTaken != 5 {
		t.Errorf("taken = %d, want 5", stats.TotalQuizzesTaken)
	}
	// 40 correct of 50 questions.
	if stats.AccuracyRate != 80 {
		t.Errorf("accuracy = %v, want 80", stats.AccuracyRate)
	}
	if stats.AverageScore != 80 {
		t.Errorf("average = %v, want 80", stats.AverageScore)
	}
}

func TestComputeStatisticsSameDayAttempts(t *testing.T) {
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{
		attemptOn(base, 5, 10, 50),
		attemptOn(base.Add(2*time.Hour), 6, 10, 60),
		attemptOn(base.AddDate(0, 0, 1), 7, 10, 70),
	}

	stats := ComputeStatistics(attempts, 3, base.AddDate(0, 0, 1).Add(5*time.Hour))
	// Two attempts on day one count as a single streak day.
	if stats.MaxStreak != 2 {
		t.Errorf("max streak = %d, want 2", stats.MaxStreak)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("current streak = %d, want 2", stats.CurrentStreak)
	}
}

func TestComputeStatisticsStaleStreak(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{
		attemptOn(base, 5, 10, 50),
		attemptOn(base.AddDate(0, 0, 1), 6, 10, 60),
	}

	// Last attempt was four days ago, so the current streak is gone but
	// the historical best survives.
	stats := ComputeStatistics(attempts, 2, base.AddDate(0, 0, 5))
	if stats.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0", stats.CurrentStreak)
	}
	if stats.MaxStreak != 2 {
		t.Errorf("max streak = %d, want 2", stats.MaxStreak)
	}
}

func TestComputeStatisticsFutureAttemptHasNoCurrentStreak(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{
		attemptOn(base, 5, 10, 50),
		attemptOn(base.AddDate(0, 0, 2), 6, 10, 60),
	}

	// The most recent attempt is dated two days after "now".
	stats := ComputeStatistics(attempts, 2, base)
	if stats.CurrentStreak != 0 {
		t.Errorf("current streak = %d for a future-dated attempt, want 0", stats.CurrentStreak)
	}
	if stats.MaxStreak != 1 {
		t.Errorf("max streak = %d, want 1", stats.MaxStreak)
	}
}

func TestComputeStatisticsYesterdayCountsAsCurrent(t *testing.T) {
	base := time.Date(2026, time.March, 10, 22, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{attemptOn(base, 9, 10, 90)}

	stats := ComputeStatistics(attempts, 1, base.AddDate(0, 0, 1).Add(2*time.Hour))
	if stats.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", stats.CurrentStreak)
	}
}

func TestComputeStatisticsThisMonth(t *testing.T) {
	now := time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{
		attemptOn(time.Date(2026, time.March, 30, 8, 0, 0, 0, time.UTC), 5, 10, 50),
		attemptOn(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), 6, 10, 60),
		attemptOn(time.Date(2026, time.April, 14, 20, 0, 0, 0, time.UTC), 7, 10, 70),
	}

	stats := ComputeStatistics(attempts, 3, now)
	if stats.QuizzesCompletedThisMonth != 2 {
		t.Errorf("this month = %d, want 2", stats.QuizzesCompletedThisMonth)
	}
}

func TestComputeStatisticsRounding(t *testing.T) {
	base := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	attempts := []model.QuizAttempt{
		attemptOn(base, 1, 3, 33.33),
		attemptOn(base.Add(time.Hour), 2, 3, 66.67),
	}

	stats := ComputeStatistics(attempts, 2, base)
	// 3 of 6 correct.
	if stats.AccuracyRate != 50 {
		t.Errorf("accuracy = %v, want 50", stats.AccuracyRate)
	}
	if stats.AverageScore != 50 {
		t.Errorf("average = %v, want 50", stats.AverageScore)
	}
}
