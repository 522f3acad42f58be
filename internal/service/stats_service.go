package service

import (
	"math"
	"sort"
	"time"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/model"
	"clarita-backend/internal/repository"
)

// Statistics is the derived summary over a user's full attempt history.
// It is recomputed on every request; there is no cache.
type Statistics struct {
	QuizzesCompletedThisMonth int     `json:"quizzesCompletedThisMonth"`
	CurrentStreak             int     `json:"currentStreak"`
	MaxStreak                 int     `json:"maxStreak"`
	AccuracyRate              float64 `json:"accuracyRate"`
	AverageScore              float64 `json:"averageScore"`
	TotalQuizzesTaken         int     `json:"totalQuizzesTaken"`
	TotalQuizzesGenerated     int     `json:"totalQuizzesGenerated"`
}

type StatsService interface {
	GetStatistics(userID uint) (*Statistics, error)
}

type statsService struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
}

func NewStatsService(attemptRepo repository.AttemptRepository, quizRepo repository.QuizRepository) StatsService {
	return &statsService{attemptRepo: attemptRepo, quizRepo: quizRepo}
}

func (s *statsService) GetStatistics(userID uint) (*Statistics, error) {
	attempts, err := s.attemptRepo.GetAttemptsByUser(userID)
	if err != nil {
		return nil, apperrors.Persistence("list attempts", err)
	}
	quizCount, err := s.quizRepo.CountQuizzesByUser(userID)
	if err != nil {
		return nil, apperrors.Persistence("count quizzes", err)
	}
	stats := ComputeStatistics(attempts, quizCount, time.Now())
	return &stats, nil
}

// ComputeStatistics derives the summary from an (unordered) attempt list
// and the user's quiz count. Pure function of its inputs; now anchors
// "this month" and the current-streak check.
func ComputeStatistics(attempts []model.QuizAttempt, quizCount int64, now time.Time) Statistics {
	stats := Statistics{
		TotalQuizzesTaken:     len(attempts),
		TotalQuizzesGenerated: int(quizCount),
	}
	if len(attempts) == 0 {
		return stats
	}

	loc := now.Location()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	for _, a := range attempts {
		if !a.CompletedAt.Before(monthStart) {
			stats.QuizzesCompletedThisMonth++
		}
	}

	sorted := make([]model.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
	})

	stats.MaxStreak = maxStreak(sorted, loc)
	stats.CurrentStreak = currentStreak(sorted, now, loc)

	var totalScore, totalQuestions int
	var percentSum float64
	for _, a := range sorted {
		totalScore += a.Score
		totalQuestions += a.TotalQuestions
		percentSum += a.Percentage
	}
	if totalQuestions > 0 {
		stats.AccuracyRate = round2(float64(totalScore) / float64(totalQuestions) * 100)
	}
	stats.AverageScore = round2(percentSum / float64(len(sorted)))

	return stats
}

// maxStreak walks the sorted attempts once. Attempts on the same calendar
// day neither extend nor break a streak; a one-day step extends it; any
// wider gap ends it.
func maxStreak(sorted []model.QuizAttempt, loc *time.Location) int {
	best := 0
	temp := 1
	prev := calendarDay(sorted[0].CompletedAt, loc)
	for _, a := range sorted[1:] {
		day := calendarDay(a.CompletedAt, loc)
		switch dayGap(prev, day) {
		case 0:
			// same calendar day, no change
		case 1:
			temp++
		default:
			if temp > best {
				best = temp
			}
			temp = 1
		}
		prev = day
	}
	if temp > best {
		best = temp
	}
	return best
}

// currentStreak is zero unless the most recent attempt was today or
// yesterday. Otherwise it counts back through consecutive one-day gaps.
func currentStreak(sorted []model.QuizAttempt, now time.Time, loc *time.Location) int {
	last := calendarDay(sorted[len(sorted)-1].CompletedAt, loc)
	today := calendarDay(now, loc)
	// A negative gap means the last attempt is dated in the future;
	// treat it like a stale streak rather than counting it.
	if gap := dayGap(last, today); gap > 1 || gap < 0 {
		return 0
	}

	streak := 1
	prev := last
	for i := len(sorted) - 2; i >= 0; i-- {
		day := calendarDay(sorted[i].CompletedAt, loc)
		gap := dayGap(day, prev)
		if gap == 0 {
			continue
		}
		if gap != 1 {
			break
		}
		streak++
		prev = day
	}
	return streak
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayGap returns the number of calendar days from a to b.
func dayGap(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
