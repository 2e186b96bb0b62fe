package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL_StripsTrackingParamsAndOrdersQuery(t *testing.T) {
	a := NormalizeURL("https://Boards.Greenhouse.io/stripe/jobs/123?utm_source=linkedin&gh_jid=123")
	b := NormalizeURL("https://boards.greenhouse.io/stripe/jobs/123?gh_jid=123")

	assert.Equal(t, b, a, "expected tracking params stripped to equal URLs")
}

func TestNormalizeURL_TrailingSlashAndDefaultPort(t *testing.T) {
	a := NormalizeURL("https://example.com:443/jobs/1/")
	b := NormalizeURL("https://example.com/jobs/1")

	assert.Equal(t, b, a, "expected default port/trailing slash normalized")
}

func TestNormalizeURL_QueryParamOrderIndependent(t *testing.T) {
	a := NormalizeURL("https://example.com/jobs?b=2&a=1")
	b := NormalizeURL("https://example.com/jobs?a=1&b=2")

	assert.Equal(t, b, a, "expected query order independence")
}

func TestNormalizeURL_InvalidURLReturnsTrimmedInput(t *testing.T) {
	assert.Equal(t, "not a url", NormalizeURL("  not a url  "))
}

func TestSameHost(t *testing.T) {
	assert.True(t, SameHost("https://Foo.com/a", "https://foo.com/b"), "expected hosts to match case-insensitively")
	assert.False(t, SameHost("https://foo.com", "https://bar.com"), "expected different hosts to not match")
}
