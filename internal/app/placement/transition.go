package placement

import "github.com/avattoli/MyTasks/internal/domain/models"

// Transition describes how a label change moves a task relative to the board.
type Transition int

const (
	// StaysOff: the board label is absent before and after.
	StaysOff Transition = iota
	// Joins: the board label is being added; this needs admission.
	Joins
	// Leaves: the board label is being removed.
	Leaves
	// StaysOn: the board label is present before and after.
	StaysOn
)

func (t Transition) String() string {
	switch t {
	case Joins:
		return "joins"
	case Leaves:
		return "leaves"
	case StaysOn:
		return "stays_on"
	default:
		return "stays_off"
	}
}

// NeedsAdmission reports whether the transition must pass the capacity check.
func (t Transition) NeedsAdmission() bool { return t == Joins }

// BoardTransition classifies a change of label set from before to after.
func BoardTransition(before, after []string) Transition {
	was := models.HasLabel(before, models.BoardLabel)
	is := models.HasLabel(after, models.BoardLabel)
	switch {
	case !was && is:
		return Joins
	case was && !is:
		return Leaves
	case was && is:
		return StaysOn
	default:
		return StaysOff
	}
}
