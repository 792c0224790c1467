package arch

import "github.com/yasm/yasm-go/internal/expr"

// Operand is one instruction operand: exactly one of Reg/Imm/Mem/Rel is
// set (spec §6's createEmptyInsn + per-operand parse_check_ea/
// parse_check_reg_tmod calls feeding into it). Grounded on mov.go's
// Out.MovRegToReg/MovImmToReg split between register and immediate
// operand kinds, generalized here to add memory and jump-target kinds.
type Operand struct {
	Reg *Register
	Imm *expr.Expression
	Mem *EffectiveAddress
	Rel *expr.Expression // jump/call target, resolved PC-relative at encode time
}

func RegOperand(r Register) Operand    { return Operand{Reg: &r} }
func ImmOperand(e *expr.Expression) Operand { return Operand{Imm: e} }
func MemOperand(ea EffectiveAddress) Operand { return Operand{Mem: &ea} }
func RelOperand(e *expr.Expression) Operand { return Operand{Rel: e} }

func (o Operand) isReg() bool { return o.Reg != nil }
func (o Operand) isImm() bool { return o.Imm != nil }
func (o Operand) isMem() bool { return o.Mem != nil }
func (o Operand) isRel() bool { return o.Rel != nil }
