package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
)

var titleCaser = cases.Title(language.Und)

func renderSectionHeader(title string, colorize bool) string {
	line := "== " + strings.TrimSpace(title) + " =="
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

// displayName turns a raw tag label like "hatsune_miku" into "Hatsune Miku".
func displayName(label string) string {
	return titleCaser.String(strings.ReplaceAll(label, "_", " "))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
