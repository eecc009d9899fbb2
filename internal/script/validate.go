package script

import (
	"fmt"
	"strconv"
)

// Issue is one problem found while checking a script.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Check walks a script without executing anything, applying the grammar
// rules the interpreter enforces at run time, and returns every problem
// found. A duplicate initializer block would abort a real run, so checking
// stops there.
func Check(r *Reader) []Issue {
	var issues []Issue
	report := func(line int, format string, args ...any) {
		issues = append(issues, Issue{Line: line, Message: fmt.Sprintf(format, args...)})
	}

	var inInit, didInit, serialOn bool
	first := true

	for {
		cmd, ok := r.Next()
		if !ok {
			break
		}

		if cmd.Op == "serial" {
			if !first {
				report(cmd.Line, "serial must be the first command")
			} else if on, ok := parseOnOff(cmd); !ok {
				report(cmd.Line, "serial takes on or off")
			} else {
				serialOn = on
			}
			first = false
			continue
		}
		first = false

		switch cmd.Op {
		case "init":
			if didInit {
				report(cmd.Line, "cannot have more than one initializer block")
				return issues
			}
			if inInit {
				report(cmd.Line, "init inside an open initializer block")
				continue
			}
			inInit = true

		case "done":
			if !inInit {
				report(cmd.Line, "done without a matching init")
				continue
			}
			inInit = false
			didInit = true

		case "rand":
			if !inInit {
				report(cmd.Line, "rand is only legal inside an initializer block")
			} else if _, ok := parseOnOff(cmd); !ok {
				report(cmd.Line, "rand takes on or off")
			}

		case "mfld", "sdst", "temp":
			if !inInit {
				report(cmd.Line, "%s is only legal inside an initializer block", cmd.Op)
			} else if !hasFloat(cmd, 0) {
				report(cmd.Line, "%s takes a numeric argument", cmd.Op)
			}

		case "freq":
			if !hasFloat(cmd, 0) {
				report(cmd.Line, "freq takes a numeric argument")
			}

		case "time", "trip":
			if inInit {
				report(cmd.Line, "%s is illegal inside an initializer block", cmd.Op)
			} else if !hasFloat(cmd, 0) {
				report(cmd.Line, "%s takes a numeric argument", cmd.Op)
			}

		case "beam":
			if _, ok := parseOnOff(cmd); !ok {
				report(cmd.Line, "beam takes on or off")
			}

		case "annl":
			if !hasFloat(cmd, 0) || !hasFloat(cmd, 1) {
				report(cmd.Line, "annl takes a duration and a temperature")
			}

		case "fllw":
			if serialOn {
				report(cmd.Line, "fllw is unavailable while the serial link is enabled")
			} else if _, ok := parseOnOff(cmd); !ok {
				report(cmd.Line, "fllw takes on or off")
			}

		default:
			report(cmd.Line, "unknown command %q", cmd.Op)
		}
	}

	if inInit {
		report(r.line, "initializer block never closed with done")
	}
	return issues
}

func hasFloat(cmd Command, n int) bool {
	if n >= len(cmd.Args) {
		return false
	}
	_, err := strconv.ParseFloat(cmd.Args[n], 64)
	return err == nil
}

func parseOnOff(cmd Command) (bool, bool) {
	if len(cmd.Args) < 1 {
		return false, false
	}
	switch cmd.Args[0] {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		return false, false
	}
}
