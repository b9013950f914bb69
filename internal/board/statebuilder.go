package board

import "fmt"

// StateBuilder assembles a State from a raw Position.
type StateBuilder struct {
	pos    Position
	config StateConfig
	fill   bool
	fillTo Color
}

// NewStateBuilder starts a builder from a copy of pos with default rules.
func NewStateBuilder(pos *Position) *StateBuilder {
	return &StateBuilder{pos: *pos, config: DefaultStateConfig()}
}

// WithConfig sets the rule options.
func (b *StateBuilder) WithConfig(config StateConfig) *StateBuilder {
	b.config = config
	return b
}

// WithRemainingPiecesInHand gives every piece absent from board and hands to c.
// Tsume problems state only the attacker's material; the defender holds the rest.
func (b *StateBuilder) WithRemainingPiecesInHand(c Color) *StateBuilder {
	b.fill = true
	b.fillTo = c
	return b
}

// Build validates the position and returns the State.
func (b *StateBuilder) Build() (*State, error) {
	pos := b.pos
	if err := pos.checkPieces(); err != nil {
		return nil, err
	}
	pos.refresh()
	if b.fill {
		missing := pos.MissingPieces()
		for pt := Pawn; pt < King; pt++ {
			pos.Hands[b.fillTo][pt] += missing[pt]
		}
	}
	if b.config.MaxPly < 0 {
		return nil, fmt.Errorf("negative max ply %d", b.config.MaxPly)
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	return newState(&pos, b.config), nil
}
