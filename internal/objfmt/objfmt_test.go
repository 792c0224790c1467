package objfmt

import (
	"encoding/binary"

	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

type fakeArch struct{}

func (fakeArch) Name() string  { return "x86" }
func (fakeArch) WordSize() int { return 64 }

// buildSimpleObject returns an Object with one code section containing
// a 4-byte constant, a 4-byte reference to an extern symbol "callee",
// and a defined global label "start" at offset 0 — enough surface to
// exercise every format's label/extern/relocation handling.
func buildSimpleObject(t testingT) (*object.Object, *object.Section) {
	obj := object.New(fakeArch{}, "t.asm", "t.out")
	sec := obj.AppendSection(".text", true, false)

	start := obj.Symbols().GetSymbol("start")
	if err := start.Declare(symbol.Global, 1); err != nil {
		t.Fatalf("declare start: %v", err)
	}

	constVal := value.New(32, expr.FromIntNum(intnum.FromInt64(0x11223344)))
	bc1 := sec.Append(bytecode.NewData(constVal), 1)
	if err := start.DefineLabel(bc1.Loc(0), 1); err != nil {
		t.Fatalf("define start: %v", err)
	}

	callee := obj.Symbols().GetSymbol("callee")
	if err := callee.Declare(symbol.Extern, 2); err != nil {
		t.Fatalf("declare callee: %v", err)
	}
	refVal := value.FromExpression(expr.FromSymbol(callee), 32, 2)
	sec.Append(bytecode.NewData(refVal), 2)

	offset := uint64(0)
	for _, bc := range sec.Bytecodes() {
		bc.SetOffset(offset)
		n, err := bc.CalcLen(nil)
		if err != nil {
			t.Fatalf("CalcLen: %v", err)
		}
		bc.SetLength(n)
		offset += uint64(n)
	}
	return obj, sec
}

// testingT is the minimal *testing.T surface this helper needs, so it
// can be called from any _test.go file in this package without an
// import cycle on the testing package's concrete type.
type testingT interface {
	Fatalf(format string, args ...any)
}

func le32At(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
func le16At(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
