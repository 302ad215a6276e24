package autosave

import (
	"fmt"
	"time"
)

// Indicator renders the short status label shown next to an editor.
// Params: scheduler status and current time.
// Returns: error label, saving label, relative last-saved label, or the idle default.
func Indicator(status Status, now time.Time) string {
	switch {
	case status.Error != "":
		return "Unable to save"
	case status.IsSaving:
		return "Saving..."
	case status.LastSaved != nil:
		return savedLabel(*status.LastSaved, now)
	default:
		return "Auto-save on"
	}
}

func savedLabel(saved, now time.Time) string {
	elapsed := now.Sub(saved)
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := int(elapsed / time.Second)
	switch {
	case seconds < 10:
		return "Saved just now"
	case seconds < 60:
		return fmt.Sprintf("Saved %ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("Saved %dm ago", seconds/60)
	default:
		return "Saved " + saved.Format("15:04")
	}
}
