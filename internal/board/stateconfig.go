package board

// RepetitionRule selects when a repeated position counts as a repetition.
type RepetitionRule uint8

const (
	// RepetitionFourFold follows the game rule: the fourth occurrence ends the game.
	RepetitionFourFold RepetitionRule = iota
	// RepetitionFirst reports the first recurrence, as searches want.
	RepetitionFirst
)

// PerpetualCheckRule selects how a repetition made of continuous checks is scored.
type PerpetualCheckRule uint8

const (
	// PerpetualCheckLoses makes the checking side lose.
	PerpetualCheckLoses PerpetualCheckRule = iota
	// PerpetualCheckDraws treats perpetual check as a plain repetition.
	PerpetualCheckDraws
)

// EndingRule selects an optional way to end the game besides mate.
type EndingRule uint8

const (
	EndingNone EndingRule = iota
	// EndingDeclare27 enables the 27-point entering-king declaration.
	EndingDeclare27
)

// StateConfig holds the rule options of a State. It is immutable once the
// State is built.
type StateConfig struct {
	Repetition     RepetitionRule
	PerpetualCheck PerpetualCheckRule
	Ending         EndingRule

	// MaxPly ends the game as a draw once reached. Zero disables the limit.
	MaxPly int
}

// DefaultStateConfig returns the tournament rule set.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		Repetition:     RepetitionFourFold,
		PerpetualCheck: PerpetualCheckLoses,
		Ending:         EndingNone,
		MaxPly:         320,
	}
}
