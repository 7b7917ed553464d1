package gx

import (
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/nitro"
)

// CommandGroup holds the four commands packed into one opcode word.
type CommandGroup struct {
	Offset   int
	Commands [opcodesPerWord]Command
}

// ParseDisplayList decodes the packed command stream filling b. Parameter
// words of all four slots follow the opcode word in slot order.
func ParseDisplayList(b nitro.Buffer) ([]CommandGroup, error) {
	var (
		groups []CommandGroup
		params [maxOperands]uint32
	)

	for pos := 0; pos < b.Len(); {
		word, err := b.U32(pos)
		if err != nil {
			return nil, errors.Wrap(err, "reading opcode word")
		}
		group := CommandGroup{Offset: pos}
		pos += wordSize

		for slot := 0; slot < opcodesPerWord; slot++ {
			op := Opcode(word >> (slot * bitsPerOpcode))
			if !op.Known() {
				return nil, errors.Wrapf(nitro.ErrUnknownOpcode, "0x%02x in slot %d of word at 0x%x",
					uint8(op), slot, b.Base()+group.Offset)
			}

			p := params[:op.Operands()]
			for i := range p {
				if p[i], err = b.U32(pos); err != nil {
					return nil, errors.Wrapf(err, "reading parameter %d of %s", i, op)
				}
				pos += wordSize
			}

			if group.Commands[slot], err = decodeCommand(op, p); err != nil {
				return nil, errors.Wrapf(err, "decoding %s at 0x%x", op, b.Base()+group.Offset)
			}
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// Flatten returns the commands of all groups in stream order.
func Flatten(groups []CommandGroup) []Command {
	out := make([]Command, 0, len(groups)*opcodesPerWord)
	for _, g := range groups {
		out = append(out, g.Commands[:]...)
	}
	return out
}
