package blocks

import "time"

// Reconstruct partitions time-ordered records into fixed-length blocks.
// A block opens at the first record not covered by the previous block and
// covers every later record before its end, whatever the gaps between them.
// Only the last block can be active.
func Reconstruct(records []UsageRecord, now time.Time, s Settings) []Block {
	if len(records) == 0 {
		return nil
	}

	var (
		result []Block
		open   *Block
	)
	for _, r := range records {
		if open == nil || !r.Timestamp.Before(open.EndTime) {
			start := blockStart(r.Timestamp, s.StartGranularity)
			if open != nil {
				result = append(result, *open)
				// Blocks never overlap, even when the granularity does not
				// divide the block duration.
				if start.Before(open.EndTime) {
					start = open.EndTime
				}
			}
			open = &Block{StartTime: start, EndTime: start.Add(s.BlockDuration)}
		}
		open.Records = append(open.Records, r)
	}
	result = append(result, *open)

	last := &result[len(result)-1]
	last.IsActive = last.ActiveAt(now)
	return result
}

// blockStart truncates ts to the granularity. Truncation only moves
// backwards, so the opening record always lies inside its block.
func blockStart(ts time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return ts
	}
	return ts.Truncate(granularity)
}

// ActiveBlockOf returns the last block when it is active at now.
func ActiveBlockOf(blocks []Block, now time.Time) (Block, bool) {
	if len(blocks) == 0 {
		return Block{}, false
	}
	last := blocks[len(blocks)-1]
	if !last.ActiveAt(now) {
		return Block{}, false
	}
	last.IsActive = true
	return last, true
}
