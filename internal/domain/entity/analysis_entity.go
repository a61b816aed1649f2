package entity

import (
	"time"
)

// PromptAnalysis is one stored prompt-safety check, owned by a user.
type PromptAnalysis struct {
	ID               string
	UserID           string
	Prompt           string
	IsSafe           bool
	JailbreakRate    float64
	Perturbations    int
	PerturbationType string
	PerturbationPct  int
	CreatedAt        time.Time
}
