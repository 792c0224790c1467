package objfmt

// Win64 is the 64-bit Windows COFF object format (spec §6's win64
// keyword): IMAGE_FILE_MACHINE_AMD64 sections emitted through the
// shared coff writer.
type Win64 struct {
	coff
}

func NewWin64() *Win64 {
	w := &Win64{}
	w.machine = imageFileMachineAmd64
	return w
}

func (w *Win64) Keyword() string           { return "win64" }
func (w *Win64) GetDefaultX86ModeBits() int { return 64 }
