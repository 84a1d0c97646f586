package logger

import (
	"fmt"
	"sort"
	"strings"

	"apex-hub/pkg/common"

	"go.uber.org/zap/zapcore"
)

// AlertSender delivers an operator alert. Implementations must not block for long;
// the core calls them from a separate goroutine.
type AlertSender interface {
	SendAlert(level, message string, fields map[string]interface{})
}

// AlertCore tees entries tagged with common.KEY_LOG_HOOK_SEND_ALERT to an AlertSender.
type AlertCore struct {
	core     zapcore.Core
	sender   AlertSender
	minLevel zapcore.Level
	fields   []zapcore.Field
}

func NewAlertCore(core zapcore.Core, sender AlertSender, minLevel zapcore.Level) *AlertCore {
	return &AlertCore{core: core, sender: sender, minLevel: minLevel}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		core:     a.core.With(fields),
		sender:   a.sender,
		minLevel: a.minLevel,
		fields:   append(append([]zapcore.Field{}, a.fields...), fields...),
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && shouldAlert(fields) {
		all := append(append([]zapcore.Field{}, a.fields...), fields...)
		go a.sender.SendAlert(entry.Level.CapitalString(), entry.Message, encodeFields(all))
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func shouldAlert(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func encodeFields(fields []zapcore.Field) map[string]interface{} {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}
	return enc.Fields
}

// FormatFields renders alert fields as sorted "• key: value" lines.
func FormatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %v\n", k, fields[k]))
	}
	return sb.String()
}
