package telegram

import (
	"fmt"
	"time"

	"apex-hub/pkg/utils"
)

// FormatErrorAlertMessage formats an operator alert in Telegram HTML.
func FormatErrorAlertMessage(at time.Time, level string, message string, fields string) string {
	return fmt.Sprintf("📛 <b>[%s ALERT]</b>\n%s\n\n⚠️ %s\n\n<pre>%s</pre>",
		utils.SafeHTML(level),
		utils.PrettyDate(at),
		utils.SafeHTML(message),
		utils.SafeHTML(fields),
	)
}
