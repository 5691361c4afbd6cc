package model

// Access levels run from MinAccessLevel to MaxAccessLevel; higher is stronger.
const (
	MinAccessLevel = 0
	MaxAccessLevel = 5
)

// Operator represents a row in operators.csv.
type Operator struct {
	ID          string
	SecretHash  string // bcrypt
	Name        string
	AccessLevel int
}

// ValidAccessLevel reports whether level is within 0..5.
func ValidAccessLevel(level int) bool {
	return level >= MinAccessLevel && level <= MaxAccessLevel
}
