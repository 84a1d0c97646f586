package service

import (
	"context"
	"fmt"
	"strings"

	"apex-hub/internal/dto"
	"apex-hub/pkg/common"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"
	"apex-hub/pkg/utils"
)

// ChannelSender posts a message to the signal channel.
type ChannelSender interface {
	Configured() bool
	SendChannelMessage(ctx context.Context, text string) error
}

type NotifierService interface {
	Deliver(ctx context.Context, text string)
}

type notifierService struct {
	log     *logger.Logger
	sender  ChannelSender
	metrics *metrics.Recorder
}

func NewNotifierService(log *logger.Logger, sender ChannelSender, recorder *metrics.Recorder) NotifierService {
	return &notifierService{log: log, sender: sender, metrics: recorder}
}

// Deliver sends text on a best-effort basis. Failures are logged, never returned.
func (n *notifierService) Deliver(ctx context.Context, text string) {
	if n.sender == nil || !n.sender.Configured() {
		n.log.DebugContext(ctx, "Channel relay not configured, skipping delivery")
		return
	}

	if err := n.sender.SendChannelMessage(ctx, text); err != nil {
		n.log.WarnContext(ctx, "Failed to deliver signal message", logger.ErrorField(err))
		if n.metrics != nil {
			n.metrics.RecordNotificationFailure()
		}
	}
}

// FormatSignalMessage returns the model's channel summary when present,
// otherwise an HTML message built from the payload.
func FormatSignalMessage(p *dto.SignalPayload, analysis dto.AnalysisResult) string {
	if !analysis.IsError() {
		if summary := analysis.ChannelSummary.String(); summary != "" {
			return summary
		}
	}

	asset := p.Asset()
	if asset == "" {
		asset = "?"
	}
	direction := strings.ToUpper(p.Direction())
	if direction == "" {
		direction = "?"
	}

	marker := "⚪"
	switch strings.ToLower(p.Direction()) {
	case common.DirectionBuy:
		marker = "🟢"
	case common.DirectionSell:
		marker = "🔴"
	}

	star := ""
	if p.PathClear() {
		star = " ⭐"
	}

	prob := "?"
	if !analysis.IsError() && analysis.Probability.Valid {
		prob = utils.FormatNumber(analysis.Probability.Value)
	}

	timeframe := p.PrincipalTF()
	if timeframe == "" {
		timeframe = "?"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s - %s</b>%s\n", marker, direction, utils.SafeHTML(asset), star))
	sb.WriteString(fmt.Sprintf("⏱ %s | Score: %s/5 | Prob: %s%%\n\n",
		utils.SafeHTML(timeframe), utils.FormatNumber(p.ScoreTotal()), prob))
	sb.WriteString(fmt.Sprintf("📍 Entry: <b>%s</b>\n", level(p.Levels.Entry)))
	sb.WriteString(fmt.Sprintf("🛑 Stop: <b>%s</b>\n", level(p.Levels.Stop)))
	sb.WriteString(fmt.Sprintf("🎯 TP1: <b>%s</b> | TP2: <b>%s</b> | TP3: <b>%s</b>",
		level(p.Levels.TP1), level(p.Levels.TP2), level(p.Levels.TP3)))
	if p.Weekend() {
		sb.WriteString("\n⚠ <b>Weekend Mode</b>")
	}
	sb.WriteString(fmt.Sprintf("\n#APEX #%s", utils.SafeHTML(strings.ReplaceAll(asset, "/", ""))))

	return sb.String()
}

func level(n dto.Number) string {
	if !n.Valid {
		return "-"
	}
	return utils.FormatNumber(n.Value)
}
