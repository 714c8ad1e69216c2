package ai

// 筆記長度上限，約略對應 2000 個 token
const maxNotesChars = 8000

// truncateNotes 將筆記截斷至長度上限，避免上下文無限成長
func truncateNotes(notes string, limit int) string {
	if len(notes) <= limit {
		return notes
	}
	return notes[:limit] + "..."
}
