package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsAllowed(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		program     string
		expect      bool
	}{
		{
			description: "nil policy admits everything",
			policy:      nil,
			program:     "counter",
			expect:      true,
		},
		{
			description: "empty lists admit everything",
			policy:      &Policy{},
			program:     "counter",
			expect:      true,
		},
		{
			description: "block list wins over allow list",
			policy:      &Policy{AllowList: []string{"counter"}, BlockList: []string{"counter"}},
			program:     "counter",
			expect:      false,
		},
		{
			description: "allow list excludes unlisted programs",
			policy:      &Policy{AllowList: []string{"rehearse"}},
			program:     "counter",
			expect:      false,
		},
		{
			description: "matching is case insensitive",
			policy:      &Policy{AllowList: []string{"Counter"}},
			program:     "counter",
			expect:      true,
		},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.policy.IsAllowed(testCase.program), testCase.description)
	}
}

func TestPolicy_Admit(t *testing.T) {
	ctx := context.Background()

	assert.True(t, (*Policy)(nil).Admit(ctx, "counter"))
	assert.True(t, (&Policy{Mode: ModeAuto}).Admit(ctx, "counter"))
	assert.False(t, (&Policy{Mode: ModeDeny}).Admit(ctx, "counter"))
	assert.False(t, (&Policy{Mode: ModeAsk}).Admit(ctx, "counter"), "ask without callback rejects")

	asked := &Policy{Mode: ModeAsk, Ask: func(ctx context.Context, program string, p *Policy) bool {
		p.Mode = ModeAuto
		return true
	}}
	assert.True(t, asked.Admit(ctx, "counter"))
	assert.Equal(t, ModeAuto, asked.Mode, "ask callback may promote the policy")

	blocked := &Policy{Mode: ModeAuto, BlockList: []string{"counter"}}
	assert.False(t, blocked.Admit(ctx, "counter"), "lists apply regardless of mode")
}

func TestPolicy_ContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	original := &Policy{Mode: ModeDeny}
	ctx := WithPolicy(context.Background(), original)
	assert.Same(t, original, FromContext(ctx))
}

func TestPolicy_ConfigRoundTrip(t *testing.T) {
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))

	original := &Policy{Mode: ModeAsk, AllowList: []string{"counter"}, BlockList: []string{"nop"}}
	restored := FromConfig(ToConfig(original))
	assert.Equal(t, original.Mode, restored.Mode)
	assert.Equal(t, original.AllowList, restored.AllowList)
	assert.Equal(t, original.BlockList, restored.BlockList)
	assert.Nil(t, restored.Ask, "ask callbacks are not persistable")
}
