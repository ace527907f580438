package output

import "fmt"

// SgrModifier is an ANSI "Select Graphic Rendition" parameter.
// Printed through a Printer it vanishes unless escape sequences are allowed.
type SgrModifier int

const (
	Reset             SgrModifier = 0
	Bold              SgrModifier = 1
	Dim               SgrModifier = 2
	Invert            SgrModifier = 7
	Red               SgrModifier = 31
	Green             SgrModifier = 32
	Yellow            SgrModifier = 33
	Magenta           SgrModifier = 35
	Cyan              SgrModifier = 36
	DefaultForeground SgrModifier = 39
)

func (m SgrModifier) String() string {
	return fmt.Sprintf("\x1B[%dm", int(m))
}

func TerminalFormatAsDim(text string) string {
	return fmt.Sprintf("%s%s%s", Dim, text, Reset)
}
