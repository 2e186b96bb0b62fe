package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdubz/job-finder-worker/internal/ai"
	"github.com/jdubz/job-finder-worker/internal/enrichment/wikipedia"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// HandleCompany's network-backed collaborators (wikipedia.Client,
// search.Client, htmlfetch.Fetcher) are concrete structs with no seams
// to fake, so these tests cover the pure merge/selection logic the
// Company Processor builds on top of them instead of the full handler.

func TestMergeCompanyFields_PrefersLongerTextAndFirstPartyWebsite(t *testing.T) {
	c := &models.Company{About: "short", Culture: "", HeadquartersLocation: "Known HQ"}
	wiki := wikipedia.Result{
		About:                "a longer wikipedia summary of the company",
		Website:              "https://boards.greenhouse.io/acme",
		HeadquartersLocation: "Wiki HQ",
		Industry:             "Software",
		EmployeeCount:        500,
	}
	extracted := &ai.CompanyExtraction{
		Culture:       "collaborative and fast-moving",
		Mission:       "build great software",
		IsRemoteFirst: true,
		Products:      []string{"Widget"},
	}
	hits := []searchHit{{url: "https://acme.example.com"}}

	mergeCompanyFields(c, wiki, extracted, hits)

	assert.Equal(t, wiki.About, c.About, "expected longer wikipedia About to win")
	assert.Equal(t, extracted.Culture, c.Culture, "expected AI Culture to fill empty field")
	assert.Equal(t, "https://acme.example.com", c.Website, "expected first-party website over the greenhouse board url")
	assert.Equal(t, "Known HQ", c.HeadquartersLocation, "expected existing HQ to be kept (first-non-empty)")
	assert.Equal(t, 500, c.EmployeeCount, "expected employee count filled from wiki")
	assert.True(t, c.IsRemoteFirst, "expected IsRemoteFirst to be OR'd in from extraction")
	require.Len(t, c.Products, 1)
	assert.Equal(t, "Widget", c.Products[0])
}

func TestPickWebsite_FallsBackToJobBoardWhenNoFirstPartyCandidate(t *testing.T) {
	got := pickWebsite([]string{"https://boards.greenhouse.io/acme", "https://jobs.lever.co/acme"})
	assert.Equal(t, "https://boards.greenhouse.io/acme", got, "expected the first candidate as fallback when none are first-party")
}

func TestPickWebsite_SkipsJobBoardsWhenFirstPartyAvailable(t *testing.T) {
	got := pickWebsite([]string{"https://boards.greenhouse.io/acme", "https://acme.example.com"})
	assert.Equal(t, "https://acme.example.com", got, "expected first-party site preferred")
}

func TestPickFetchCandidate_SkipsJobBoardsAndSearchEngines(t *testing.T) {
	hits := []searchHit{
		{url: "https://www.google.com/search?q=acme"},
		{url: "https://boards.greenhouse.io/acme"},
		{url: "https://acme.example.com"},
	}
	got := pickFetchCandidate(hits)
	assert.Equal(t, "https://acme.example.com", got, "expected first non-jobboard, non-search-engine hit")
}

func TestPickFetchCandidate_EmptyWhenNoCandidates(t *testing.T) {
	hits := []searchHit{{url: "https://www.bing.com/search?q=acme"}}
	assert.Empty(t, pickFetchCandidate(hits), "expected no candidate")
}

func TestLongerOf(t *testing.T) {
	assert.Equal(t, "abc", longerOf("abc", "de"), "expected longer first string kept")
	assert.Equal(t, "defgh", longerOf("abc", "defgh"), "expected longer second string to win")
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "third", firstNonEmpty("", "", "third"), "expected first non-empty value")
	assert.Equal(t, "", firstNonEmpty("", "", ""), "expected empty when all inputs empty")
}

func TestResolveSearchName_FallsBackWithoutHintURL(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	got := deps.resolveSearchName(context.Background(), "Acme Corp", "")
	assert.Equal(t, "Acme Corp", got, "expected fallback name with no hint url")
}
