package match_test

import (
	"testing"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/match"

	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	targets := domain.NewTargets([]string{"Software Engineer", "Engineer", "SRE"})

	var testCases = []struct {
		scenario string
		raw      string
		want     domain.TargetTitle
		ok       bool
	}{
		{"qualifiers around target", "Senior Software Engineer, Backend", "software engineer", true},
		{"first target wins", "Staff Software Engineer", "software engineer", true},
		{"later target", "Data Engineer", "engineer", true},
		{"case and spacing", "  SOFTWARE   engineer  ", "software engineer", true},
		{"short target inside word", "SRE II", "sre", true},
		{"no match", "Sales Rep", "", false},
		{"empty raw", "   ", "", false},
		{"nbsp", "Software\u00a0Engineer", "software engineer", true},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			got, ok := match.Title(tt.raw, targets)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTitleNormalizesRaw(t *testing.T) {
	t.Parallel()

	targets := []domain.TargetTitle{"senior engineer"}
	got, ok := match.Title("  Senior   ENGINEER ", targets)
	require.True(t, ok)
	require.Equal(t, domain.TargetTitle("senior engineer"), got)

	// idempotent on already normalized input
	again, ok := match.Title(match.Normalize("  Senior   ENGINEER "), targets)
	require.True(t, ok)
	require.Equal(t, got, again)
}

func TestTitleNoTargets(t *testing.T) {
	t.Parallel()
	_, ok := match.Title("Software Engineer", nil)
	require.False(t, ok)
}

func TestTitleIsNotTokenMatch(t *testing.T) {
	t.Parallel()
	// word order matters, this is substring containment
	_, ok := match.Title("Engineer, Software", domain.NewTargets([]string{"Software Engineer"}))
	require.False(t, ok)
}

func TestPostingsKeepsAdapterOrder(t *testing.T) {
	t.Parallel()

	postings := []domain.RawPosting{
		{Title: "Staff Software Engineer", URL: "https://x/1"},
		{Title: "Sales Rep", URL: "https://x/2"},
		{Title: "Software Engineer II", URL: "https://x/3"},
	}
	got := match.Postings(postings, domain.NewTargets([]string{"Software Engineer"}))
	require.Len(t, got, 2)
	require.Equal(t, "https://x/1", got[0].URL)
	require.Equal(t, "https://x/3", got[1].URL)
	require.Equal(t, domain.TargetTitle("software engineer"), got[1].Target)
}
