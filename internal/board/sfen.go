package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartSFEN is the SFEN string for the starting position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// ParseSFEN parses an SFEN string and returns a Position.
// The result is not validated; StateBuilder does that.
func ParseSFEN(sfen string) (*Position, error) {
	parts := strings.Fields(sfen)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid SFEN: need at least 3 fields, got %d", len(parts))
	}

	pos := NewEmptyPosition()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "b":
		pos.SetSideToMove(Black)
	case "w":
		pos.SetSideToMove(White)
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse hands (field 2)
	if err := parseHands(pos, parts[2]); err != nil {
		return nil, err
	}

	// Move number (field 3, optional) is accepted but not stored.
	if len(parts) > 3 {
		if _, err := strconv.Atoi(parts[3]); err != nil {
			return nil, fmt.Errorf("invalid move number: %s", parts[3])
		}
	}

	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != NumRanks {
		return fmt.Errorf("invalid SFEN: need %d ranks, got %d", NumRanks, len(ranks))
	}

	for rank, row := range ranks {
		file := NumFiles - 1
		promoted := false
		for i := 0; i < len(row); i++ {
			ch := row[i]
			switch {
			case ch == '+':
				promoted = true
				continue
			case ch >= '1' && ch <= '9':
				if promoted {
					return fmt.Errorf("invalid SFEN: '+' before digit in rank %c", 'a'+rank)
				}
				file -= int(ch - '0')
				continue
			}

			c := Black
			if ch >= 'a' && ch <= 'z' {
				c = White
				ch -= 'a' - 'A'
			}
			pt := pieceTypeFromChar(ch)
			if pt == NoPieceType {
				return fmt.Errorf("invalid SFEN piece: %c", row[i])
			}
			if promoted {
				if !pt.CanPromote() {
					return fmt.Errorf("invalid SFEN: %c cannot promote", row[i])
				}
				pt = pt.Promote()
				promoted = false
			}
			if file < 0 {
				return fmt.Errorf("invalid SFEN: rank %c too long", 'a'+rank)
			}
			pos.putPiece(NewPiece(pt, c), NewSquare(file, rank))
			file--
		}
		if file != -1 || promoted {
			return fmt.Errorf("invalid SFEN: rank %c has wrong length", 'a'+rank)
		}
	}
	return nil
}

func parseHands(pos *Position, hands string) error {
	if hands == "-" {
		return nil
	}
	n := 0
	for i := 0; i < len(hands); i++ {
		ch := hands[i]
		if ch >= '0' && ch <= '9' {
			n = n*10 + int(ch-'0')
			continue
		}
		c := Black
		if ch >= 'a' && ch <= 'z' {
			c = White
			ch -= 'a' - 'A'
		}
		pt := pieceTypeFromChar(ch)
		if pt == NoPieceType || pt == King {
			return fmt.Errorf("invalid SFEN hand piece: %c", hands[i])
		}
		if n == 0 {
			n = 1
		}
		if err := pos.SetHandCount(c, pt, pos.Hands[c].Count(pt)+n); err != nil {
			return err
		}
		n = 0
	}
	if n != 0 {
		return fmt.Errorf("invalid SFEN hands: trailing count in %s", hands)
	}
	return nil
}

// ToSFEN returns the SFEN string of the position with move number 1.
func (p *Position) ToSFEN() string {
	var sb strings.Builder

	for rank := 0; rank < NumRanks; rank++ {
		empty := 0
		for file := NumFiles - 1; file >= 0; file-- {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank < NumRanks-1 {
			sb.WriteByte('/')
		}
	}

	if p.SideToMove == Black {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}

	black := p.Hands[Black].String()
	white := strings.ToLower(p.Hands[White].String())
	if black == "" && white == "" {
		sb.WriteByte('-')
	} else {
		sb.WriteString(black)
		sb.WriteString(white)
	}

	sb.WriteString(" 1")
	return sb.String()
}
