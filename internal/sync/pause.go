package sync

import (
	"strings"

	"github.com/openclaw/missionctl/internal/model"
)

// PausedBoards determines pause state from board chat messages: for each
// board, only the most recent "/pause" or "/resume" command counts. Matching
// is case-insensitive on the trimmed content; anything else in the chat is
// ignored. Messages may be passed in any order.
func PausedBoards(messages []*model.BoardMessage) map[string]bool {
	latest := make(map[string]*model.BoardMessage)
	for _, msg := range messages {
		if !msg.IsChat {
			continue
		}
		cmd := strings.ToLower(strings.TrimSpace(msg.Content))
		if cmd != model.PauseCommand && cmd != model.ResumeCommand {
			continue
		}
		if cur, ok := latest[msg.BoardID]; !ok || msg.CreatedAt.After(cur.CreatedAt) {
			latest[msg.BoardID] = msg
		}
	}

	paused := make(map[string]bool)
	for boardID, msg := range latest {
		if strings.ToLower(strings.TrimSpace(msg.Content)) == model.PauseCommand {
			paused[boardID] = true
		}
	}
	return paused
}
