package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdfchat/internal/models"
)

func TestNormalizeJoinsHyphenation(t *testing.T) {
	assert.Equal(t, "Line1Line2 Extra spaces", Normalize("Line1-\nLine2\n\nExtra  spaces"))
	assert.Equal(t, "Moretext here", Normalize("More-\ntext\nhere"))
}

func TestRemovePUA(t *testing.T) {
	in := "Regular text \uE000 PUA char \uF8FF end \U000F0000 more"
	// deletion only, spacing is not re-collapsed here
	assert.Equal(t, "Regular text  PUA char  end  more", RemovePUA(in))

	// supplementary area B
	assert.Equal(t, "ab", RemovePUA("a\U00100000\U0010FFFDb"))
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("a  b\t\tc   \t d")
	assert.Equal(t, "a b c d", got)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"spaced   out\t text \n with\n\nruns",
		"already clean text",
		"hy-\nphen and  pua",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizePassages(t *testing.T) {
	passages := []models.Passage{
		{Content: "Line1-\nLine2\n\nExtra  spaces", Page: 1, Source: "a.pdf"},
		{Content: "More-\ntext\nhere", Page: 2, Source: "a.pdf"},
	}
	out := NormalizePassages(passages)

	assert.Equal(t, "Line1Line2 Extra spaces", out[0].Content)
	assert.Equal(t, "Moretext here", out[1].Content)
	// metadata untouched
	assert.Equal(t, 1, out[0].Page)
	assert.Equal(t, 2, out[1].Page)
	assert.Equal(t, "a.pdf", out[1].Source)
}
