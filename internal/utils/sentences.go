package utils

import (
	"fmt"
	"strconv"
)

// LikesSentence describes who likes a post, from the point of view of the viewer.
func LikesSentence(likes int64, likedByViewer bool) string {
	if likes == 0 {
		return "no one so far"
	}
	if likes == 1 && likedByViewer {
		return "you"
	}

	prefix, other := "", ""
	if likedByViewer {
		likes--
		prefix, other = "you and ", " other"
	}
	people := " people"
	if likes == 1 {
		people = " person"
	}
	return prefix + strconv.FormatInt(likes, 10) + other + people
}

// ResultRangeString tells which slice of the results a page shows.
func ResultRangeString(page, pageSize int, total int64) string {
	if total == 0 {
		return "No posts were found"
	}
	first := int64(1 + (page-1)*pageSize)
	last := first + int64(pageSize) - 1
	if last > total {
		last = total
	}
	if last != first {
		return fmt.Sprintf("Showing posts %d-%d out of %d", first, last, total)
	}
	return fmt.Sprintf("Showing post %d out of %d", first, total)
}
