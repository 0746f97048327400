package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCycles(t *testing.T) {
	var testCases = []struct {
		description string
		edges       map[uint64]uint64
		expect      [][]uint64
	}{
		{
			description: "empty graph",
			edges:       map[uint64]uint64{},
			expect:      nil,
		},
		{
			description: "chain without cycle",
			edges:       map[uint64]uint64{1: 2, 2: 3},
			expect:      nil,
		},
		{
			description: "two process cycle",
			edges:       map[uint64]uint64{1: 2, 2: 1},
			expect:      [][]uint64{{1, 2}},
		},
		{
			description: "three process cycle entered from a tail",
			edges:       map[uint64]uint64{1: 2, 2: 3, 3: 4, 4: 2},
			expect:      [][]uint64{{2, 3, 4}},
		},
		{
			description: "self wait",
			edges:       map[uint64]uint64{7: 7},
			expect:      [][]uint64{{7}},
		},
		{
			description: "two independent cycles",
			edges:       map[uint64]uint64{1: 2, 2: 1, 10: 11, 11: 10},
			expect:      [][]uint64{{1, 2}, {10, 11}},
		},
	}

	for _, testCase := range testCases {
		actual := detectCycles(testCase.edges)
		assert.Equal(t, testCase.expect, actual, testCase.description)

		// Deterministic: a second pass over the same graph agrees.
		assert.Equal(t, actual, detectCycles(testCase.edges), testCase.description)
	}
}
