package arch

import "github.com/yasm/yasm-go/internal/bytecode"

// conditionCodes maps every conditional-jump mnemonic to its 4-bit
// condition code, shared by the short (0x70+cc) and near (0x0F 0x80+cc)
// opcode forms (spec §6's per-mnemonic table, grounded on
// x86_64_codegen.go's instruction dispatch style).
var conditionCodes = map[string]uint8{
	"jo": 0x0, "jno": 0x1,
	"jb": 0x2, "jc": 0x2, "jnae": 0x2,
	"jae": 0x3, "jnb": 0x3, "jnc": 0x3,
	"je": 0x4, "jz": 0x4,
	"jne": 0x5, "jnz": 0x5,
	"jbe": 0x6, "jna": 0x6,
	"ja": 0x7, "jnbe": 0x7,
	"js": 0x8, "jns": 0x9,
	"jp": 0xA, "jpe": 0xA,
	"jnp": 0xB, "jpo": 0xB,
	"jl": 0xC, "jnge": 0xC,
	"jge": 0xD, "jnl": 0xD,
	"jle": 0xE, "jng": 0xE,
	"jg": 0xF, "jnle": 0xF,
}

// branchLength returns a relative branch's length in its current form:
// jmp short is 2 bytes (EB rel8), jmp near is 5 (E9 rel32); jcc short is
// 2 bytes (7x rel8), jcc near is 6 (0F 8x rel32); call is always 5 (E8
// rel32).
func branchLength(mnemonic string, short bool) int {
	switch mnemonic {
	case "call":
		return 5
	case "jmp":
		if short {
			return 2
		}
		return 5
	default: // jcc
		if short {
			return 2
		}
		return 6
	}
}

func encodeBranch(i *Insn, bc *bytecode.Bytecode, sink bytecode.OutputSink) error {
	n := branchLength(i.Mnemonic, i.short)
	v := i.distanceValue(bc, n, branchDispSize(i.Mnemonic, i.short))

	switch i.Mnemonic {
	case "call":
		if err := sink.WriteBytes([]byte{0xE8}); err != nil {
			return err
		}
	case "jmp":
		if i.short {
			if err := sink.WriteBytes([]byte{0xEB}); err != nil {
				return err
			}
		} else if err := sink.WriteBytes([]byte{0xE9}); err != nil {
			return err
		}
	default:
		cc := conditionCodes[i.Mnemonic]
		if i.short {
			if err := sink.WriteBytes([]byte{0x70 | cc}); err != nil {
				return err
			}
		} else if err := sink.WriteBytes([]byte{0x0F, 0x80 | cc}); err != nil {
			return err
		}
	}
	return sink.WriteValue(v)
}

func branchDispSize(mnemonic string, short bool) int {
	if mnemonic != "call" && short {
		return 8
	}
	return 32
}
