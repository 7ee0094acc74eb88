// Package trending ranks images by the number of distinct users who voted on
// them within a trailing window.
package trending

import (
	"sort"
	"time"

	"github.com/notes-bin/imgshare/internal/model"
)

// Window is the trailing period that counts towards the ranking.
const Window = 24 * time.Hour

// Since returns the start of the window ending at now.
func Since(now time.Time) time.Time {
	return now.Add(-Window)
}

// Entry is one ranked image with its recent voter count.
type Entry struct {
	Image  model.Image
	Voters int64
}

// Rank orders images by descending recent voter count. Images missing from
// counts rank with zero; ties keep the input order.
func Rank(images []model.Image, counts map[uint]int64) []Entry {
	entries := make([]Entry, len(images))
	for i, img := range images {
		entries[i] = Entry{Image: img, Voters: counts[img.ID]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Voters > entries[j].Voters
	})
	return entries
}
