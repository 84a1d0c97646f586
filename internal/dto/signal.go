package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrNotAnObject = errors.New("payload must be a JSON object")

// SignalPayload is the alert body posted by the charting tool. Every field is
// optional; read it through the accessor methods.
type SignalPayload struct {
	AssetName  Text              `json:"asset"`
	Timeframes Timeframes        `json:"timeframes"`
	Signal     SignalDescriptor  `json:"signal"`
	Levels     Levels            `json:"levels"`
	Price      map[string]any    `json:"price"`
	Fibonacci  map[string]any    `json:"fibonacci"`
	SDZones    map[string]any    `json:"sd_zones"`
	Keo        map[string]any    `json:"keo"`
	MMKernel   map[string]any    `json:"mm_kernel"`
	OscMatrix  map[string]any    `json:"osc_matrix"`
	StochRSI   map[string]any    `json:"stoch_rsi"`
	Score      map[string]Number `json:"score"`
	IsWeekend  Flag              `json:"is_weekend"`
	Timestamp  Text              `json:"timestamp"`

	// Raw holds the request body exactly as received.
	Raw []byte `json:"-"`
}

type Timeframes struct {
	Principal    Text `json:"principal"`
	Confirmation Text `json:"confirmation"`
	Entry        Text `json:"entry"`

	// Keys used by older alert templates.
	Confirmacao Text `json:"confirmacao"`
	Entrada     Text `json:"entrada"`
}

type SignalDescriptor struct {
	Direction Text `json:"direction"`
	Type      Text `json:"type"`
	PathClear Flag `json:"path_clear"`
	TFAligned Flag `json:"tf_aligned"`
}

type Levels struct {
	Entry Number `json:"entry"`
	Stop  Number `json:"stop"`
	TP1   Number `json:"tp1"`
	TP2   Number `json:"tp2"`
	TP3   Number `json:"tp3"`
}

type ScoreComponent struct {
	Name  string
	Value Number
}

// Snapshot is one named indicator reading from the payload.
type Snapshot struct {
	Name   string
	Values map[string]any
}

// ParseSignalPayload decodes raw into a payload. Only a body that is not a
// JSON object is an error; fields with unexpected types are left at their
// defaults. A missing timestamp defaults to receivedAt.
func ParseSignalPayload(raw []byte, receivedAt time.Time) (*SignalPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return nil, errors.New("payload is not valid JSON")
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotAnObject
	}

	payload := &SignalPayload{}
	if err := json.Unmarshal(trimmed, payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}

	payload.Raw = append([]byte(nil), raw...)
	if payload.Timestamp.String() == "" {
		payload.Timestamp = Text(receivedAt.UTC().Format(time.RFC3339))
	}
	return payload, nil
}

func (p *SignalPayload) Asset() string {
	return p.AssetName.String()
}

func (p *SignalPayload) Direction() string {
	return p.Signal.Direction.String()
}

func (p *SignalPayload) SignalType() string {
	return p.Signal.Type.String()
}

func (p *SignalPayload) PathClear() bool {
	return p.Signal.PathClear.Bool()
}

func (p *SignalPayload) TFAligned() bool {
	return p.Signal.TFAligned.Bool()
}

func (p *SignalPayload) Weekend() bool {
	return p.IsWeekend.Bool()
}

func (p *SignalPayload) ScoreTotal() float64 {
	return p.Score["total"].Float()
}

// ScoreComponents returns every score entry except the total, sorted by name.
func (p *SignalPayload) ScoreComponents() []ScoreComponent {
	components := make([]ScoreComponent, 0, len(p.Score))
	for name, value := range p.Score {
		if name == "total" {
			continue
		}
		components = append(components, ScoreComponent{Name: name, Value: value})
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
	return components
}

func (p *SignalPayload) PrincipalTF() string {
	return p.Timeframes.Principal.String()
}

func (p *SignalPayload) ConfirmationTF() string {
	if tf := p.Timeframes.Confirmation.String(); tf != "" {
		return tf
	}
	return p.Timeframes.Confirmacao.String()
}

func (p *SignalPayload) EntryTF() string {
	if tf := p.Timeframes.Entry.String(); tf != "" {
		return tf
	}
	return p.Timeframes.Entrada.String()
}

// Snapshots returns the indicator readings in a fixed order. Absent
// snapshots are included with no values.
func (p *SignalPayload) Snapshots() []Snapshot {
	return []Snapshot{
		{Name: "price", Values: p.Price},
		{Name: "fibonacci", Values: p.Fibonacci},
		{Name: "sd_zones", Values: p.SDZones},
		{Name: "keo", Values: p.Keo},
		{Name: "mm_kernel", Values: p.MMKernel},
		{Name: "osc_matrix", Values: p.OscMatrix},
		{Name: "stoch_rsi", Values: p.StochRSI},
	}
}

// String renders the snapshot as "key=value" pairs sorted by key.
func (s Snapshot) String() string {
	if len(s.Values) == 0 {
		return Placeholder
	}

	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatSnapshotValue(s.Values[k])))
	}
	return strings.Join(parts, " ")
}

func formatSnapshotValue(v any) string {
	switch val := v.(type) {
	case nil:
		return Placeholder
	case float64:
		return NewNumber(val).String()
	case string:
		if val == "" {
			return Placeholder
		}
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return Placeholder
		}
		return string(b)
	}
}
