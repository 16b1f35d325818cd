package config

import (
	"os"
	"strings"

	"github.com/muesli/termenv"
)

var (
	FORCE_COLOR           bool
	TRUECOLOR_COLORTERM   bool
	TERM_256COLOR_CAPABLE bool
	NO_COLOR              bool
	SHOULD_COLORIZE       bool
)

func init() {
	// FORCE COLOR

	if s, ok := os.LookupEnv("FORCE_COLOR"); ok {
		FORCE_COLOR = len(s) != 0 && s != "false" && s != "0"
	}

	//TERMCOLOR

	TRUECOLOR_COLORTERM = os.Getenv("COLORTERM") == "truecolor"

	//NO_COLOR

	if s, ok := os.LookupEnv("NO_COLOR"); ok {
		NO_COLOR = len(s) != 0 && s != "false" && s != "0"
	}

	//TERM

	TERM_256COLOR_CAPABLE = strings.Contains(os.Getenv("TERM"), "256color")

	SHOULD_COLORIZE = !NO_COLOR && (FORCE_COLOR || TRUECOLOR_COLORTERM || TERM_256COLOR_CAPABLE)
}

// ColorProfile returns the color profile used for the output of the CLI.
func ColorProfile() termenv.Profile {
	switch {
	case !SHOULD_COLORIZE:
		return termenv.Ascii
	case TRUECOLOR_COLORTERM:
		return termenv.TrueColor
	case TERM_256COLOR_CAPABLE:
		return termenv.ANSI256
	}
	return termenv.ANSI
}
