package genevector

// ANSI escape sequences for the trainer's console diagnostics.
const (
	ansiHeader = "\033[95m"
	ansiCyan   = "\033[96m"
	ansiGreen  = "\033[92m"
	ansiYellow = "\033[93m"
	ansiReset  = "\033[0m"
)

func colorize(code, s string) string {
	return code + s + ansiReset
}
