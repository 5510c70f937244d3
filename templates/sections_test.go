package templates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDocument() string {
	var b strings.Builder
	b.WriteString("为您规划的杭州三日游。\n\n")
	for i, h := range SectionHeadings {
		b.WriteString(h)
		fmt.Fprintf(&b, "\n这里是第%d章的内容。\n\n", i+1)
	}
	return b.String()
}

func TestMissingSections_CompleteDocument(t *testing.T) {
	assert.Empty(t, MissingSections(fullDocument()))
}

func TestMissingSections_ReportsAbsentHeadingsInOrder(t *testing.T) {
	doc := strings.ReplaceAll(fullDocument(), HeadingLodging, "## 三、住的地方")
	doc = strings.ReplaceAll(doc, HeadingPitfalls, "")

	missing := MissingSections(doc)
	assert.Equal(t, []string{HeadingLodging, HeadingPitfalls}, missing)
}

func TestParseDocument_KeepsBodyAndPreamble(t *testing.T) {
	doc := ParseDocument(fullDocument())
	assert.Equal(t, "为您规划的杭州三日游。", doc.Preamble)
	require.Len(t, doc.Order, len(SectionHeadings))
	assert.Contains(t, doc.Sections[HeadingFood], "这里是第5章的内容。")
}

func TestParseDocument_UnknownSubheadingsStayInsideSection(t *testing.T) {
	text := HeadingTransport + "\n### 城际交通\n高铁出行\n### 市内交通\n地铁为主\n"
	doc := ParseDocument(text)
	body := doc.Sections[HeadingTransport]
	assert.Contains(t, body, "### 城际交通")
	assert.Contains(t, body, "地铁为主")
}

func TestEnsureSections_FillsPlaceholdersInContractOrder(t *testing.T) {
	doc := strings.ReplaceAll(fullDocument(), HeadingClothing, "## 六、穿什么")
	repaired := EnsureSections(doc)

	assert.Empty(t, MissingSections(repaired))

	// Every heading appears exactly once, in contract order.
	last := -1
	for _, h := range SectionHeadings {
		idx := strings.Index(repaired, h)
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, last)
		assert.Equal(t, idx, strings.LastIndex(repaired, h))
		last = idx
	}
	assert.Contains(t, repaired, placeholderBody)
	// Sections that were present keep their content.
	assert.Contains(t, repaired, "这里是第5章的内容。")
}

func TestEnsureSections_NoOpOnCompleteDocumentContent(t *testing.T) {
	repaired := EnsureSections(fullDocument())
	assert.NotContains(t, repaired, placeholderBody)
	assert.Empty(t, MissingSections(repaired))
}
