package rank

import "leadparser-engine/internal/domain"

type Scorer interface {
	Score(c domain.Candidate) int
}
