package slug

// HeadingRef is the minimal view of a heading the hierarchy builder needs:
// its depth (1-6) and its already-disambiguated primary slug.
type HeadingRef struct {
	Depth int
	Slug  string
}

// HierarchicalPaths computes, for every heading in document order, the
// slash-joined chain of primary slugs from the nearest H1 ancestor down to
// that heading. For each heading it walks backwards through the preceding
// headings; for each one whose depth is strictly less than the current
// running minimum, its slug is pushed to the front and the minimum is
// lowered, continuing until depth 1 is reached (or the start of the
// document, for headings with no H1 ancestor).
func HierarchicalPaths(headings []HeadingRef) []string {
	paths := make([]string, len(headings))
	for i, h := range headings {
		chain := []string{h.Slug}
		minDepth := h.Depth
		for j := i - 1; j >= 0 && minDepth > 1; j-- {
			if headings[j].Depth < minDepth {
				chain = append([]string{headings[j].Slug}, chain...)
				minDepth = headings[j].Depth
			}
		}
		paths[i] = joinSlashed(chain)
	}
	return paths
}

func joinSlashed(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	total := len(parts) - 1
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for i, p := range parts {
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, p...)
	}
	return string(out)
}
