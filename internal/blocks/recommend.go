package blocks

// Recommend picks the profile with the most time left before its token
// limit. Profiles without an active block or an estimate are never chosen.
// Ties go to the profile with fewer tokens used, then to the one earlier in
// reports. Engine.Run orders reports by name, so there the earlier one is
// the first by name.
func Recommend(reports []ProfileReport) *Recommendation {
	best := -1
	for i, r := range reports {
		ttl, ok := r.TimeToLimit()
		if !ok {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bestTTL, _ := reports[best].TimeToLimit()
		switch {
		case ttl > bestTTL:
			best = i
		case ttl == bestTTL && r.Active.Usage.TotalTokens < reports[best].Active.Usage.TotalTokens:
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	ttl, _ := reports[best].TimeToLimit()
	return &Recommendation{Index: best, Name: reports[best].Name, TimeToLimit: ttl}
}
