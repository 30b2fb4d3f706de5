package domain_test

import (
	"testing"

	"jobsearch-engine/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestNewTargets(t *testing.T) {
	t.Parallel()

	got := domain.NewTargets([]string{
		"  Software   Engineer ",
		"SRE",
		"software engineer",
		"",
		"   ",
		"Platform\u00a0Engineer",
	})
	require.Equal(t, []domain.TargetTitle{
		"software engineer",
		"sre",
		"platform engineer",
	}, got)
}

func TestNewTargetsEmpty(t *testing.T) {
	t.Parallel()
	require.Empty(t, domain.NewTargets(nil))
}

func TestCompanyOption(t *testing.T) {
	t.Parallel()

	c := domain.Company{Options: map[string]string{"selector": "a.job", "empty": ""}}
	require.Equal(t, "a.job", c.Option("selector", "a"))
	require.Equal(t, "def", c.Option("empty", "def"))
	require.Equal(t, "def", c.Option("missing", "def"))
}
