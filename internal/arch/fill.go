package arch

import "github.com/yasm/yasm-go/internal/bytecode"

// nopSequences are the longest recommended multi-byte NOP encodings up
// to 9 bytes (Intel optimization manual table, the sequence every
// production x86 assembler's align-fill table reproduces verbatim).
// Padding longer than 9 bytes repeats the 9-byte form.
var nopSequences = [][]byte{
	{},
	{0x90},
	{0x66, 0x90},
	{0x0F, 0x1F, 0x00},
	{0x0F, 0x1F, 0x40, 0x00},
	{0x0F, 0x1F, 0x44, 0x00, 0x00},
	{0x66, 0x0F, 0x1F, 0x44, 0x00, 0x00},
	{0x0F, 0x1F, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0F, 0x1F, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0F, 0x1F, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// GetFill implements spec §6's getFill: n bytes of architecturally
// preferred padding for code sections (spec §4.4's Align content). Data
// sections are padded with zero bytes by bytecode.Align itself.
func (x *X86_64) GetFill() bytecode.FillFunc {
	return func(n int) []byte {
		buf := make([]byte, 0, n)
		for n > 0 {
			chunk := n
			if chunk > 9 {
				chunk = 9
			}
			buf = append(buf, nopSequences[chunk]...)
			n -= chunk
		}
		return buf
	}
}
