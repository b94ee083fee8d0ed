package ui

import "fmt"

// ASCII logo for the application
const ASCIILogo = `
   ╔════════════════════════════════════════════════╗
   ║  ██╗     ██╗███████╗ ██████╗██████╗  █████╗    ║
   ║  ██║     ██║██╔════╝██╔════╝██╔══██╗██╔══██╗   ║
   ║  ██║     ██║███████╗██║     ██████╔╝███████║   ║
   ║  ██║     ██║╚════██║██║     ██╔══██╗██╔══██║   ║
   ║  ███████╗██║███████║╚██████╗██║  ██║██║  ██║   ║
   ║  ╚══════╝╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ║
   ║      CHECKPOINTED LISTING HARVESTER            ║
   ╚════════════════════════════════════════════════╝
`

var quietMode bool

// SetQuietMode suppresses all output except errors.
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quietMode {
		return
	}
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(message string, detail ...string) {
	fmt.Println(Red("✗ " + message))
	for _, d := range detail {
		if d != "" {
			fmt.Println(Dim("  " + d))
		}
	}
}

// PrintWarning prints a warning message in yellow
func PrintWarning(message string, detail ...string) {
	if quietMode {
		return
	}
	fmt.Println(Yellow("! " + message))
	for _, d := range detail {
		if d != "" {
			fmt.Println(Dim("  " + d))
		}
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(message string) {
	if quietMode {
		return
	}
	fmt.Println(Green("✓ " + message))
}

// PrintInfo prints a labeled value
func PrintInfo(label, value string) {
	if quietMode {
		return
	}
	fmt.Printf("%s %s\n", Cyan(label+":"), value)
}

// PrintHighlight prints an emphasized message in magenta
func PrintHighlight(message string) {
	if quietMode {
		return
	}
	fmt.Println(Magenta(message))
}
