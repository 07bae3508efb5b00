package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertUnitRan checks the log output to confirm that a unit has finished.
// It relies on the text log format.
func AssertUnitRan(t *testing.T, logs string, unit string) {
	t.Helper()

	expected := fmt.Sprintf("unit=%s", unit)
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "Finished unit") && strings.Contains(line, expected) {
			return
		}
	}
	require.Fail(t, "unit did not finish", "expected a 'Finished unit' log line for %q", unit)
}

// CountUnitRuns returns how many times a unit finished according to the logs.
func CountUnitRuns(logs string, unit string) int {
	expected := fmt.Sprintf("unit=%s ", unit)
	n := 0
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "Finished unit") && strings.Contains(line+" ", expected) {
			n++
		}
	}
	return n
}
