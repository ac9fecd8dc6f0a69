// util/paths_test.go
package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pbirs-tools/admin-api/util"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/Sales/Q1 Report", util.NormalizePath("/Sales/Q1%20Report"))
	assert.Equal(t, "/Sales/Q1", util.NormalizePath(`\Sales\Q1`))
	assert.Equal(t, "/Sales/Q1", util.NormalizePath("//Sales///Q1"))
	assert.Equal(t, "/Sales", util.NormalizePath("  /Sales  "))
	assert.Equal(t, "", util.NormalizePath(""))
	// Undecodable input keeps its raw form instead of being dropped.
	assert.Equal(t, "/Sales/100%", util.NormalizePath("/Sales/100%"))
}
