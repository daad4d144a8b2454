// Package counter tracks how many times each named visitor has been greeted.
package counter

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyName = errors.New("visitor name is empty")

// Counter increments per-name visit counts. Increment is atomic per name in every implementation.
type Counter interface {
	Increment(ctx context.Context, name string) (int64, error)
	Snapshot(ctx context.Context) (map[string]int64, error)
	Close(ctx context.Context) error
}

// Summary is the aggregate served by the counter endpoint.
type Summary struct {
	TotalVisits    int64            `json:"totalVisits"`
	UniqueVisitors int              `json:"uniqueVisitors"`
	Visitors       map[string]int64 `json:"visitors"`
}

func Summarize(snapshot map[string]int64) Summary {
	summary := Summary{Visitors: snapshot}
	if summary.Visitors == nil {
		summary.Visitors = map[string]int64{}
	}
	for _, count := range summary.Visitors {
		summary.TotalVisits += count
	}
	summary.UniqueVisitors = len(summary.Visitors)
	return summary
}

func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s! 👋", name)
}
