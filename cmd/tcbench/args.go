package main

import "strings"

// isArgError matches the argument and flag errors cobra returns as plain
// strings.
func isArgError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"accepts ", "requires ", "unknown flag", "unknown shorthand", "invalid argument", "flag needs"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
