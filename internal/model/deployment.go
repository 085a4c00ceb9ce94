package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Difficulty is the tier of a requested lab environment.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every accepted difficulty.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty normalizes s (surrounding whitespace, case) and checks it
// against the closed set of difficulties.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d, nil
	}
	return "", fmt.Errorf("difficulty %q must be one of easy, medium, hard", s)
}

// Valid reports whether d is already a normalized member of the set.
func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

type Deployment struct {
	ID          string     `json:"id" db:"id"`
	RequestedAt time.Time  `json:"requested_at" db:"requested_at"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	Status      string     `json:"status" db:"status"`
	InstanceID  *string    `json:"instance_id" db:"instance_id"`
}

// DeploymentRequested is the event detail announced on the bus for every
// accepted request. The provisioning worker depends on exactly these fields.
type DeploymentRequested struct {
	ID          string     `json:"id"`
	Difficulty  Difficulty `json:"difficulty"`
	RequestedAt time.Time  `json:"requested_at"`
}
