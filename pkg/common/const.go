package common

const (
	KEY_SIGNAL_STATS = "signal_stats"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)

const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)
