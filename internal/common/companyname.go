package common

import (
	"regexp"
	"strings"
)

// legalSuffixes are stripped from a company name before comparison so
// "Acme Inc." and "Acme" collapse to the same NormalizedName (spec §3
// Company is "keyed by name (normalized)").
var legalSuffixes = []string{
	"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.",
	"corporation", "co", "co.", "company", "limited", "plc", "gmbh",
}

var normalizeNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeCompanyName canonicalizes a company name for dedup/lookup:
// lowercase, strip a trailing legal suffix, collapse non-alphanumeric
// runs to a single space, trim.
func NormalizeCompanyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	fields := strings.Fields(n)
	if len(fields) > 1 {
		last := strings.TrimRight(fields[len(fields)-1], ".")
		for _, suffix := range legalSuffixes {
			if last == strings.TrimRight(suffix, ".") {
				fields = fields[:len(fields)-1]
				break
			}
		}
	}
	n = strings.Join(fields, " ")
	n = normalizeNonAlnum.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// jobBoardCompanyMap maps a job-board vendor subdomain/slug pattern to
// the canonical company name the Company Processor should search for
// instead of the raw slug found in the submitted URL (spec §4.7 step 2,
// scenario S2: "mdlz" -> "Mondelez International").
var jobBoardCompanyMap = map[string]string{
	"mdlz":       "Mondelez International",
	"jnj":        "Johnson & Johnson",
	"ibm":        "IBM",
	"ge":         "General Electric",
	"gsk":        "GSK",
	"pg":         "Procter & Gamble",
	"hsbc":       "HSBC",
	"pwc":        "PwC",
	"ey":         "EY",
	"kpmg":       "KPMG",
	"accenture":  "Accenture",
	"salesforce": "Salesforce",
	"databricks": "Databricks",
	"stripe":     "Stripe",
	"anthropic":  "Anthropic",
	"openai":     "OpenAI",
}

// knownJobBoardHosts are vendor careers-platform hosts whose path/host
// carries a company slug rather than a human-readable name.
var knownJobBoardHosts = []string{
	"myworkdayjobs.com", "greenhouse.io", "lever.co", "icims.com",
	"successfactors.com", "taleo.net", "smartrecruiters.com",
	"jobvite.com", "bamboohr.com", "ashbyhq.com",
}

// CanonicalCompanyFromJobBoardURL resolves spec §4.7 step 2: "if the
// hint URL matches a known job-board pattern (e.g. a vendor careers
// subdomain), map to the company's canonical name via a built-in map."
// overrides (from worker-settings.company_name_overrides) is consulted
// before the built-in table, so operators can add or correct a mapping
// without a redeploy. Returns ("", false) when the URL isn't a
// recognized job-board host or the extracted slug has no mapping.
func CanonicalCompanyFromJobBoardURL(rawURL string, overrides map[string]string) (string, bool) {
	host := Host(rawURL)
	if host == "" {
		return "", false
	}
	isJobBoard := false
	for _, boardHost := range knownJobBoardHosts {
		if strings.HasSuffix(host, boardHost) {
			isJobBoard = true
			break
		}
	}
	if !isJobBoard {
		return "", false
	}
	slug := strings.SplitN(host, ".", 2)[0]
	slug = strings.TrimSuffix(slug, "-wd1")
	slug = strings.TrimSuffix(slug, "-wd5")
	slug = strings.ToLower(slug)
	if canonical, ok := overrides[slug]; ok {
		return canonical, true
	}
	if canonical, ok := jobBoardCompanyMap[slug]; ok {
		return canonical, true
	}
	return "", false
}

// IsJobBoardHost reports whether rawURL's host belongs to a known
// careers-platform vendor, used by the Company Processor's step 8 to
// decide whether a company's extracted website is itself a job-board
// URL worth spawning a SourceDiscovery task against.
func IsJobBoardHost(rawURL string) bool {
	host := Host(rawURL)
	if host == "" {
		return false
	}
	for _, boardHost := range knownJobBoardHosts {
		if strings.HasSuffix(host, boardHost) {
			return true
		}
	}
	return false
}

var searchEngineHosts = []string{
	"google.com", "bing.com", "duckduckgo.com", "yahoo.com", "baidu.com",
}

// IsSearchEngineHost reports whether rawURL's host is a general search
// engine domain rather than a first-party company site, used when
// picking a website candidate during the Company Processor's merge
// step (spec §4.7 step 6: "prefer a valid first-party domain over job
// boards or search-engine URLs").
func IsSearchEngineHost(rawURL string) bool {
	host := Host(rawURL)
	if host == "" {
		return false
	}
	for _, seHost := range searchEngineHosts {
		if strings.HasSuffix(host, seHost) {
			return true
		}
	}
	return false
}
