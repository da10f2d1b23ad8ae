package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("ZERO_RESULTS returned", "zero_results"))
	assert.True(t, HasAny("No results found.", "zero_results", "no results"))
	assert.False(t, HasAny("REQUEST_DENIED", "zero_results", "no results"))
	assert.False(t, HasAny("anything"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Guadalajara", "Monterrey"}, SplitList(" Guadalajara, ,Monterrey ,"))
	assert.Nil(t, SplitList(""))
}
