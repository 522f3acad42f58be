package llm

import (
	"context"
	"encoding/json"
)

// Generator is the narrow interface the quiz services depend on. The
// real implementation talks to Gemini; tests substitute a stub so the
// validation logic can be exercised without the network.
type Generator interface {
	Generate(ctx context.Context, prompt string) (json.RawMessage, error)
}
