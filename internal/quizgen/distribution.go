package quizgen

import "clarita-backend/internal/apperrors"

// TargetDistribution splits n questions across the enabled types. Each
// type gets floor(n/k); the first n mod k types in enumeration order get
// one extra, so counts sum to n and differ by at most one. The result is
// advisory: it shapes the generator instructions but only the total is
// enforced afterwards.
func TargetDistribution(n int, enabled []QuestionType) (map[QuestionType]int, error) {
	if len(enabled) == 0 {
		return nil, apperrors.Validation("at least one question type must be enabled")
	}
	if n <= 0 {
		return nil, apperrors.Validation("question count must be positive, got %d", n)
	}
	seen := make(map[QuestionType]bool, len(enabled))
	for _, t := range enabled {
		if seen[t] {
			return nil, apperrors.Validation("duplicate question type %q", t)
		}
		seen[t] = true
	}

	k := len(enabled)
	base := n / k
	extra := n % k

	dist := make(map[QuestionType]int, k)
	for i, t := range enabled {
		if i < extra {
			dist[t] = base + 1
		} else {
			dist[t] = base
		}
	}
	return dist, nil
}
