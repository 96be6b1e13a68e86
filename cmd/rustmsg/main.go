package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rustmsg/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "rustmsg",
	Short: "Rust compiler diagnostic normalizer",
	Long:  `rustmsg turns the cargo JSON diagnostic stream into deduplicated, navigable, editor-ready messages`,
}

// main wires the subcommands and persistent flags and executes the root
// command. A failed execution exits with status code 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	// Добавляем команды
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to this path (empty = stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
