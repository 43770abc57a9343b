package main

import (
	"strconv"
	"strings"
)

// valueFlags take a separate value argument unless written as --name=value.
var valueFlags = map[string]bool{
	flagConfig:     true,
	flagWorkers:    true,
	flagAPIURL:     true,
	flagConnectURL: true,
	flagMirror:     true,
	flagLogLevel:   true,
	flagBzip2:      true,
	flagTimeout:    true,
}

// normalizeArgs rewrites a command line so the flag parser sees every flag
// before the positional arguments. It accepts flags anywhere and expands
// "--file_types a b c" into repeated --file_types flags.
func normalizeArgs(args []string) []string {
	var flags, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isFlag(arg) {
			positional = append(positional, arg)
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if (name == flagFileTypes || name == "file-types") && !hasValue {
			n := 0
			for i+1 < len(args) && !isFlag(args[i+1]) && args[i+1] != "--" {
				i++
				n++
				flags = append(flags, "--"+flagFileTypes, args[i])
			}
			if n == 0 {
				flags = append(flags, arg)
			}
			continue
		}

		flags = append(flags, arg)
		if valueFlags[name] && !hasValue && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	out := flags
	for _, p := range positional {
		if strings.HasPrefix(p, "-") {
			out = append(out, "--")
			break
		}
	}
	return append(out, positional...)
}

// isFlag reports whether arg looks like a flag. Negative numbers are
// positional values.
func isFlag(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' || arg == "--" {
		return false
	}
	if _, err := strconv.Atoi(arg[1:]); err == nil {
		return false
	}
	return true
}
