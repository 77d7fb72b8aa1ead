package provider

import "strings"

// BestRendition walks the quality ladder (highest first) and returns the first
// rendition with a URL that fits within ceiling on both axes. Unknown
// dimensions (zero) are treated as fitting. When nothing fits, the smallest
// rendition with a URL is returned so an oversized asset still renders.
func BestRendition(ladder []Rendition, ceiling int) (Rendition, bool) {
	var smallest Rendition
	found := false
	for _, r := range ladder {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if fits(r, ceiling) {
			return r, true
		}
		smallest = r
		found = true
	}
	return smallest, found
}

// SmallestRendition returns the lowest rung of the ladder that has a URL.
func SmallestRendition(ladder []Rendition) (Rendition, bool) {
	for i := len(ladder) - 1; i >= 0; i-- {
		if strings.TrimSpace(ladder[i].URL) != "" {
			return ladder[i], true
		}
	}
	return Rendition{}, false
}

func fits(r Rendition, ceiling int) bool {
	if ceiling <= 0 {
		return true
	}
	return r.Width <= ceiling && r.Height <= ceiling
}

// ClampDimension caps v to [0, ceiling]. Width and height are clamped
// independently; the grid renders into a square tile.
func ClampDimension(v, ceiling int) int {
	if v < 0 {
		return 0
	}
	if ceiling > 0 && v > ceiling {
		return ceiling
	}
	return v
}
