package hls

import "github.com/tanq16/danzo-hls/internal/danzoerr"

// Preference expresses the caller's variant preference (C3 inputs).
// HasResolution and HasBandwidth mark which preferences are set; the value
// fields are ignored while their flag is false.
type Preference struct {
	Width, Height int // preferred resolution; Height is what rule 1 keys on
	HasResolution bool
	Bandwidth     int64
	HasBandwidth  bool
}

// SelectVariant applies spec.md §4.3's rules, with original_source's
// exact-resolution short-circuit applied first as a stricter special case.
func SelectVariant(m *MasterPlaylist, pref Preference) (Variant, error) {
	if m == nil || len(m.Variants) == 0 {
		return Variant{}, danzoerr.New(danzoerr.NoVariant, "master playlist has no variants", nil)
	}

	if pref.HasResolution {
		for i, v := range m.Variants {
			if v.HasRes && v.Width == pref.Width && v.Height == pref.Height {
				return m.Variants[i], nil
			}
		}
		best := -1
		for i, v := range m.Variants {
			if v.HasRes && v.Height > pref.Height {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			bv := m.Variants[best]
			if !v.HasRes {
				// treat "no resolution" as eligible but never preferred over
				// a variant that does report a qualifying resolution
				if bv.HasRes {
					continue
				}
			}
			if v.HasRes && !bv.HasRes {
				best = i
				continue
			}
			if v.HasRes && bv.HasRes {
				if v.Height > bv.Height || (v.Height == bv.Height && v.Bandwidth > bv.Bandwidth) {
					best = i
				}
			}
		}
		if best == -1 {
			best = 0
		}
		return m.Variants[best], nil
	}

	if pref.HasBandwidth {
		best := -1
		lowest := 0
		for i, v := range m.Variants {
			if v.Bandwidth < m.Variants[lowest].Bandwidth {
				lowest = i
			}
			if v.Bandwidth <= pref.Bandwidth {
				if best == -1 || v.Bandwidth > m.Variants[best].Bandwidth {
					best = i
				}
			}
		}
		if best == -1 {
			return m.Variants[lowest], nil
		}
		return m.Variants[best], nil
	}

	best := 0
	for i, v := range m.Variants {
		if v.Bandwidth > m.Variants[best].Bandwidth {
			best = i
		}
	}
	return m.Variants[best], nil
}
