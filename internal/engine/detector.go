package engine

import (
	"context"
	"fmt"

	"trading-analytics/internal/storage"
)

// DetectMode selects how new closed trades are detected.
type DetectMode string

// Detection modes
const (
	// DetectCount counts rows past the watermark; the target is the max closed id.
	DetectCount DetectMode = "count"
	// DetectFetch fetches rows past the watermark; the target is the max fetched id.
	DetectFetch DetectMode = "fetch"
)

// ParseDetectMode validates a configured detection mode. Empty means DetectCount.
func ParseDetectMode(s string) (DetectMode, error) {
	switch DetectMode(s) {
	case "", DetectCount:
		return DetectCount, nil
	case DetectFetch:
		return DetectFetch, nil
	default:
		return "", fmt.Errorf("unknown detector mode %q: %w", s, storage.ErrInvalidInput)
	}
}

// detection is what the detector saw past the watermark.
type detection struct {
	count int64
	maxID int64
}

func detect(ctx context.Context, trades storage.TradeStore, mode DetectMode, watermark int64) (detection, error) {
	if mode == DetectFetch {
		rows, err := trades.ListClosedAfter(ctx, watermark)
		if err != nil {
			return detection{}, fmt.Errorf("fetch closed trades after %d: %w", watermark, err)
		}
		d := detection{count: int64(len(rows))}
		for _, t := range rows {
			if t.TradeID > d.maxID {
				d.maxID = t.TradeID
			}
		}
		return d, nil
	}

	n, err := trades.CountClosedAfter(ctx, watermark)
	if err != nil {
		return detection{}, fmt.Errorf("count closed trades after %d: %w", watermark, err)
	}
	if n == 0 {
		return detection{}, nil
	}
	maxID, err := trades.MaxClosedID(ctx)
	if err != nil {
		return detection{}, fmt.Errorf("max closed trade id: %w", err)
	}
	return detection{count: n, maxID: maxID}, nil
}
