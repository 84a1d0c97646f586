package repository

import (
	"fmt"
	"strings"

	"apex-hub/internal/dto"
)

// SignalSystemInstruction is sent with every analysis request.
const SignalSystemInstruction = "You are APEX, a professional technical-analysis system. Always respond with a single valid JSON object and nothing else."

// BuildSignalPrompt renders the analysis brief for one signal. It never fails;
// absent values are written as dto.Placeholder. The JSON schema at the end is
// what parseAnalysis expects back.
func BuildSignalPrompt(p *dto.SignalPayload) string {
	var sb strings.Builder

	asset := orPlaceholder(p.Asset())
	direction := strings.ToUpper(p.Direction())
	if direction == "" {
		direction = strings.ToUpper(dto.Placeholder)
	}
	path := "path obstructed"
	if p.PathClear() {
		path = "path clear"
	}

	sb.WriteString("You are APEX, a professional trading analysis protocol.\n")
	sb.WriteString(fmt.Sprintf("Analyze %s and produce a complete technical analysis.\n\n", asset))

	sb.WriteString(fmt.Sprintf("ASSET: %s | %s / %s / %s\n",
		asset, orPlaceholder(p.PrincipalTF()), orPlaceholder(p.ConfirmationTF()), orPlaceholder(p.EntryTF())))
	sb.WriteString(fmt.Sprintf("DIRECTION: %s (%s) | signal type: %s\n", direction, path, orPlaceholder(p.SignalType())))

	sb.WriteString("SCORE:")
	for _, c := range p.ScoreComponents() {
		sb.WriteString(fmt.Sprintf(" %s=%s", c.Name, c.Value.String()))
	}
	sb.WriteString(fmt.Sprintf(" | total=%s/5\n", p.Score["total"].String()))

	if p.Weekend() {
		sb.WriteString("\nWEEKEND MODE: liquidity is thin. Widen stops by about 15%, prioritise TP1 and avoid distant targets.\n")
	}

	sb.WriteString(fmt.Sprintf("\nLEVELS: entry=%s stop=%s tp1=%s tp2=%s tp3=%s\n",
		p.Levels.Entry, p.Levels.Stop, p.Levels.TP1, p.Levels.TP2, p.Levels.TP3))

	sb.WriteString("\n### Indicators\n")
	for _, s := range p.Snapshots() {
		sb.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(s.Name), s.String()))
	}

	sb.WriteString(`
### Output
Respond ONLY with a valid JSON object, no text outside the JSON:
{
  "probability": <0-100>,
  "bias": "<BULLISH|BEARISH|NEUTRAL>",
  "structure": "<market structure: CHoCH, IDM, BSL/SSL, liquidity>",
  "microstructure": "<volume, momentum and order flow>",
  "risk_management": "<stop placement, trailing, context>",
  "confluences": ["<factor1>", "<factor2>", "<factor3>"],
  "alerts": ["<risk1>", "<risk2>"],
  "targets": {
`)
	sb.WriteString(fmt.Sprintf("    \"entry\": %s,\n", jsonLevel(p.Levels.Entry)))
	sb.WriteString(fmt.Sprintf("    \"stop\": %s,\n", jsonLevel(p.Levels.Stop)))
	sb.WriteString(fmt.Sprintf("    \"tp1\": %s,\n", jsonLevel(p.Levels.TP1)))
	sb.WriteString(fmt.Sprintf("    \"tp2\": %s,\n", jsonLevel(p.Levels.TP2)))
	sb.WriteString(fmt.Sprintf("    \"tp3\": %s,\n", jsonLevel(p.Levels.TP3)))
	sb.WriteString(`    "rr_ratio": "<computed risk/reward>"
  },
  "channel_summary": "<ready-to-post channel message, max 300 chars>"
}`)

	return sb.String()
}

func orPlaceholder(s string) string {
	if s == "" {
		return dto.Placeholder
	}
	return s
}

func jsonLevel(n dto.Number) string {
	if !n.Valid {
		return "null"
	}
	return n.String()
}
