package templates

import "strings"

// The nine guide sections, in contract order. Heading text and ordering are
// part of the storage contract: downstream consumers split guides on these
// exact markers, so they must never be reworded.
const (
	HeadingOverview    = "## 一、行程总览"
	HeadingTransport   = "## 二、交通方案"
	HeadingLodging     = "## 三、住宿推荐"
	HeadingAttractions = "## 四、景点推荐"
	HeadingFood        = "## 五、美食推荐"
	HeadingClothing    = "## 六、穿衣指南"
	HeadingSavings     = "## 七、省钱技巧"
	HeadingPitfalls    = "## 八、避坑指南"
	HeadingBooking     = "## 九、订票指南"
)

// SectionHeadings lists every required heading in contract order.
var SectionHeadings = []string{
	HeadingOverview,
	HeadingTransport,
	HeadingLodging,
	HeadingAttractions,
	HeadingFood,
	HeadingClothing,
	HeadingSavings,
	HeadingPitfalls,
	HeadingBooking,
}

// placeholderBody fills a section the generator failed to produce.
const placeholderBody = "（本节内容暂缺，生成服务未返回该章节，请重新生成或手动补充。）"

// Document is a guide split on the fixed heading markers.
type Document struct {
	// Preamble is whatever the generator emitted before the first heading.
	Preamble string
	// Sections maps heading -> body for the headings that were present.
	Sections map[string]string
	// Order records the headings in the order they appeared.
	Order []string
}

// ParseDocument splits generated text on the fixed headings. Unknown "##"
// headings are treated as body text of the enclosing section.
func ParseDocument(text string) *Document {
	known := make(map[string]bool, len(SectionHeadings))
	for _, h := range SectionHeadings {
		known[h] = true
	}

	doc := &Document{Sections: map[string]string{}}
	current := ""
	var buf []string

	flush := func() {
		body := strings.TrimRight(strings.Join(buf, "\n"), "\n")
		if current == "" {
			doc.Preamble = body
		} else {
			doc.Sections[current] = body
			doc.Order = append(doc.Order, current)
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if known[trimmed] {
			flush()
			current = trimmed
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return doc
}

// MissingSections returns the required headings absent from the text, in
// contract order. An empty result means the document honors the contract.
func MissingSections(text string) []string {
	doc := ParseDocument(text)
	var missing []string
	for _, h := range SectionHeadings {
		if _, ok := doc.Sections[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// EnsureSections reassembles a document so that every required section is
// present in contract order, substituting a placeholder body where the
// generator came up short. Sections that were present keep their content.
func EnsureSections(text string) string {
	doc := ParseDocument(text)

	var b strings.Builder
	if doc.Preamble != "" {
		b.WriteString(doc.Preamble)
		b.WriteString("\n\n")
	}
	for i, h := range SectionHeadings {
		body, ok := doc.Sections[h]
		if !ok || strings.TrimSpace(body) == "" {
			body = placeholderBody
		}
		b.WriteString(h)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(body))
		if i < len(SectionHeadings)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
