package arch

import "strconv"

// Register is one named x86-64 general-purpose or XMM register (spec
// §6's parseCheckRegTmod: the Arch decides whether a name token is a
// register and, if so, what it means). Grounded on reg.go's Register
// struct (Name/Size/Encoding), narrowed to the one machine this package
// targets.
type Register struct {
	name     string
	size     int  // operand width in bits: 8, 16, 32, or 64
	encoding uint8 // 3-bit field value; bit 3 (>= 8) is carried by REX.R/X/B
	xmm      bool
}

// RegName implements expr.RegisterRef so a Register can appear as an
// expression term (e.g. `rax` used bare in an EQU is a Type error
// surfaced by expr, not by this package).
func (r Register) RegName() string { return r.name }

func (r Register) Size() int     { return r.size }
func (r Register) Encoding() uint8 { return r.encoding }
func (r Register) IsXMM() bool   { return r.xmm }

// needsRex reports whether encoding this register's extended bit
// requires a REX prefix at all (independent of operand-size REX.W).
func (r Register) needsRex() bool { return r.encoding >= 8 }

// registers is the x86-64 register table (spec §6 "parseCheckRegTmod"),
// grounded on reg.go's x86_64Registers map plus the 8/16-bit legacy
// names and XMM0-15 that mov/cmp/div/shl/logic.go reference inline but
// reg.go itself doesn't tabulate.
var registers = map[string]Register{
	"al": {name: "al", size: 8, encoding: 0}, "cl": {name: "cl", size: 8, encoding: 1},
	"dl": {name: "dl", size: 8, encoding: 2}, "bl": {name: "bl", size: 8, encoding: 3},

	"ax": {name: "ax", size: 16, encoding: 0}, "cx": {name: "cx", size: 16, encoding: 1},
	"dx": {name: "dx", size: 16, encoding: 2}, "bx": {name: "bx", size: 16, encoding: 3},

	"eax": {name: "eax", size: 32, encoding: 0}, "ecx": {name: "ecx", size: 32, encoding: 1},
	"edx": {name: "edx", size: 32, encoding: 2}, "ebx": {name: "ebx", size: 32, encoding: 3},
	"esp": {name: "esp", size: 32, encoding: 4}, "ebp": {name: "ebp", size: 32, encoding: 5},
	"esi": {name: "esi", size: 32, encoding: 6}, "edi": {name: "edi", size: 32, encoding: 7},

	"rax": {name: "rax", size: 64, encoding: 0}, "rcx": {name: "rcx", size: 64, encoding: 1},
	"rdx": {name: "rdx", size: 64, encoding: 2}, "rbx": {name: "rbx", size: 64, encoding: 3},
	"rsp": {name: "rsp", size: 64, encoding: 4}, "rbp": {name: "rbp", size: 64, encoding: 5},
	"rsi": {name: "rsi", size: 64, encoding: 6}, "rdi": {name: "rdi", size: 64, encoding: 7},
	"r8": {name: "r8", size: 64, encoding: 8}, "r9": {name: "r9", size: 64, encoding: 9},
	"r10": {name: "r10", size: 64, encoding: 10}, "r11": {name: "r11", size: 64, encoding: 11},
	"r12": {name: "r12", size: 64, encoding: 12}, "r13": {name: "r13", size: 64, encoding: 13},
	"r14": {name: "r14", size: 64, encoding: 14}, "r15": {name: "r15", size: 64, encoding: 15},
}

func init() {
	for i := 0; i < 16; i++ {
		name := "xmm" + strconv.Itoa(i)
		registers[name] = Register{name: name, size: 128, encoding: uint8(i), xmm: true}
	}
}

// LookupRegister implements the register half of spec §6's
// parseCheckRegTmod: given a bare identifier, report whether it names a
// register and, if so, which one.
func LookupRegister(name string) (Register, bool) {
	r, ok := registers[name]
	return r, ok
}
