package dto

import (
	"encoding/json"
)

type AnalysisErrorKind string

const (
	AnalysisErrMissingCredential AnalysisErrorKind = "missing_credential"
	AnalysisErrParse             AnalysisErrorKind = "parse_error"
	AnalysisErrProvider          AnalysisErrorKind = "provider_error"
)

// AnalysisResult is the structured analysis returned by the language model,
// or an error marker when no analysis is available.
type AnalysisResult struct {
	Probability    Number  `json:"probability"`
	Bias           Text    `json:"bias"`
	Structure      Text    `json:"structure"`
	Microstructure Text    `json:"microstructure"`
	RiskManagement Text    `json:"risk_management"`
	Confluences    []Text  `json:"confluences"`
	Alerts         []Text  `json:"alerts"`
	Targets        Targets `json:"targets"`
	ChannelSummary Text    `json:"channel_summary"`

	Error     string            `json:"error,omitempty"`
	ErrorKind AnalysisErrorKind `json:"error_kind,omitempty"`
}

type Targets struct {
	Entry   Number `json:"entry"`
	Stop    Number `json:"stop"`
	TP1     Number `json:"tp1"`
	TP2     Number `json:"tp2"`
	TP3     Number `json:"tp3"`
	RRRatio Text   `json:"rr_ratio"`
}

// NewAnalysisError builds the error marker shared by every failure path.
func NewAnalysisError(kind AnalysisErrorKind, message string) AnalysisResult {
	return AnalysisResult{Error: message, ErrorKind: kind}
}

func (a AnalysisResult) IsError() bool {
	return a.Error != "" || a.ErrorKind != ""
}

// ProbabilityValue returns the probability, or 0 for an error marker.
func (a AnalysisResult) ProbabilityValue() float64 {
	if a.IsError() {
		return 0
	}
	return a.Probability.Float()
}

type analysisJSON AnalysisResult

type analysisErrorJSON struct {
	Error     string            `json:"error"`
	ErrorKind AnalysisErrorKind `json:"error_kind"`
}

// MarshalJSON writes only the error fields for an error marker.
func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	if a.IsError() {
		return json.Marshal(analysisErrorJSON{Error: a.Error, ErrorKind: a.ErrorKind})
	}

	out := analysisJSON(a)
	if out.Confluences == nil {
		out.Confluences = []Text{}
	}
	if out.Alerts == nil {
		out.Alerts = []Text{}
	}
	return json.Marshal(out)
}
