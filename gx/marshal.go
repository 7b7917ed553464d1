package gx

import "encoding/json"

type (
	commandDoc struct {
		Op   Opcode  `json:"op" yaml:"op"`
		Args Command `json:"args,omitempty" yaml:"args,omitempty"`
	}

	groupDoc struct {
		Offset   int          `json:"offset" yaml:"offset"`
		Commands []commandDoc `json:"commands" yaml:"commands"`
	}
)

func (g CommandGroup) doc() groupDoc {
	d := groupDoc{Offset: g.Offset, Commands: make([]commandDoc, 0, len(g.Commands))}
	for _, c := range g.Commands {
		if c == nil {
			continue
		}
		cd := commandDoc{Op: c.Opcode()}
		if c.Opcode().Operands() > 0 {
			cd.Args = c
		}
		d.Commands = append(d.Commands, cd)
	}
	return d
}

// MarshalJSON tags every command with its opcode name.
func (g CommandGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.doc())
}

func (g CommandGroup) MarshalYAML() (any, error) {
	return g.doc(), nil
}
