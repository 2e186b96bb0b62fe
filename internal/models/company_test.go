package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionCompany_LegalEdges(t *testing.T) {
	cases := []struct {
		from, to AnalysisStatus
		want     bool
	}{
		{AnalysisStatusPending, AnalysisStatusAnalyzing, true},
		{AnalysisStatusAnalyzing, AnalysisStatusActive, true},
		{AnalysisStatusAnalyzing, AnalysisStatusFailed, true},
		{AnalysisStatusActive, AnalysisStatusAnalyzing, true},
		{AnalysisStatusFailed, AnalysisStatusPending, true},
		{AnalysisStatusPending, AnalysisStatusActive, false},
		{AnalysisStatusActive, AnalysisStatusFailed, false},
		{AnalysisStatusFailed, AnalysisStatusActive, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransitionCompany(c.from, c.to), "CanTransitionCompany(%s, %s)", c.from, c.to)
	}
}

func TestCompany_HasGoodData(t *testing.T) {
	c := &Company{
		About:   "This is a reasonably long description of what the company does, well past one hundred characters in length for sure.",
		Culture: "We value collaboration and autonomy across every team, which is over fifty characters.",
	}
	assert.True(t, c.HasGoodData(), "expected HasGoodData to be true for long about/culture")

	thin := &Company{About: "short", Culture: "short"}
	assert.False(t, thin.HasGoodData(), "expected HasGoodData to be false for short fields")
}

func TestCompany_HasMinimalData(t *testing.T) {
	c := &Company{About: "", Culture: "just long enough to pass the twenty five character minimum"}
	assert.True(t, c.HasMinimalData(), "expected HasMinimalData true when culture alone clears its threshold")

	empty := &Company{}
	assert.False(t, empty.HasMinimalData(), "expected HasMinimalData false for an empty company")
}

func TestSizeCategoryFromEmployeeCount(t *testing.T) {
	assert.Equal(t, CompanySizeSmall, SizeCategoryFromEmployeeCount(50, 200, 2000))
	assert.Equal(t, CompanySizeMedium, SizeCategoryFromEmployeeCount(500, 200, 2000))
	assert.Equal(t, CompanySizeLarge, SizeCategoryFromEmployeeCount(5000, 200, 2000))
	assert.Equal(t, CompanySizeCategory(""), SizeCategoryFromEmployeeCount(0, 200, 2000), "expected empty category for unknown employee count")
}
