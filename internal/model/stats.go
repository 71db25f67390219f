package model

type Stats struct {
	TotalMemories     int            `json:"total_memories"`
	MemoriesThisMonth int            `json:"memories_this_month"`
	TotalMedia        int            `json:"total_media"`
	MediaByKind       map[string]int `json:"media_by_kind"`
	TotalTags         int            `json:"total_tags"`
	Moods             map[string]int `json:"moods"`
	CurrentStreak     int            `json:"current_streak"`
	LongestStreak     int            `json:"longest_streak"`
}

type Dashboard struct {
	Stats     *Stats    `json:"stats"`
	Recent    []*Memory `json:"recent"`
	OnThisDay []*Memory `json:"on_this_day"`
}
