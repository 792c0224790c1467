package objfmt

// Win32 is the 32-bit Windows COFF object format (spec §6's win32
// keyword): IMAGE_FILE_MACHINE_I386 sections emitted through the shared
// coff writer.
type Win32 struct {
	coff
}

func NewWin32() *Win32 {
	w := &Win32{}
	w.machine = imageFileMachineI386
	return w
}

func (w *Win32) Keyword() string           { return "win32" }
func (w *Win32) GetDefaultX86ModeBits() int { return 32 }
