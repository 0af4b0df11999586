package tag

import (
	"strconv"
	"time"

	"uk.co.dudmesh.bulksms/internal/model"
)

const (
	batchPrefix  = "batch"
	singlePrefix = "test"
)

type Clock func() time.Time

// DefaultGroupTag is the group tag used when the caller supplies none.
func DefaultGroupTag(now time.Time) string {
	return batchPrefix + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// DefaultClientTag is the tag for a single send without a caller tag.
func DefaultClientTag(now time.Time) string {
	return singlePrefix + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

func ItemTag(groupTag string, index int) string {
	return groupTag + "_" + strconv.Itoa(index)
}

// Allocate returns the effective group tag and the item tags for indices
// [0, size). The clock is only read when groupTag is empty.
func Allocate(groupTag string, size int, clock Clock) (string, []model.DispatchTag) {
	if groupTag == "" {
		groupTag = DefaultGroupTag(clock())
	}
	tags := make([]model.DispatchTag, size)
	for i := range tags {
		tags[i] = model.DispatchTag{GroupTag: groupTag, ItemTag: ItemTag(groupTag, i)}
	}
	return groupTag, tags
}
