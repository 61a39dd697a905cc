package domain

import "github.com/shopspring/decimal"

type ResolveRequest struct {
	Code     string          `json:"code"`
	CIFValue decimal.Decimal `json:"cifValue"`
	Country  string          `json:"country,omitempty"`
}

type DutyTreatment string

const (
	TreatmentStandard        DutyTreatment = "standard"
	TreatmentPreferential    DutyTreatment = "preferential"
	TreatmentSanction        DutyTreatment = "sanction"
	TreatmentAgreementNotice DutyTreatment = "agreement_notice"
)

type VATSource string

const (
	VATSourceTable       VATSource = "table"
	VATSourceChapterRule VATSource = "chapter_rule"
)

type CountryInfo struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Agreement     string          `json:"agreement,omitempty"`
	ReductionRate decimal.Decimal `json:"reductionRate"`
	Notes         string          `json:"notes,omitempty"`
}

type DutyBreakdown struct {
	StandardRate   decimal.Decimal `json:"standardRate"`
	AppliedRate    decimal.Decimal `json:"appliedRate"`
	Amount         decimal.Decimal `json:"amount"`
	StandardAmount decimal.Decimal `json:"standardAmount"`
	Savings        decimal.Decimal `json:"savings"`
	Treatment      DutyTreatment   `json:"treatment"`
	Note           string          `json:"note,omitempty"`
	MatchedLevel   int             `json:"matchedLevel"`
}

type VATBreakdown struct {
	Rate   decimal.Decimal `json:"rate"`
	Type   VATType         `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Source VATSource       `json:"source"`
}

type Alert struct {
	Code        string `json:"code"`
	ShortText   string `json:"shortText"`
	FullText    string `json:"fullText"`
	Priority    int    `json:"priority"`
	OriginCode  string `json:"originCode,omitempty"`
	Certificate string `json:"certificate,omitempty"`
}

// CalculationResult is built per request and never persisted by the engine.
type CalculationResult struct {
	MatchedCode string          `json:"matchedCode"`
	Description string          `json:"description"`
	CIFValue    decimal.Decimal `json:"cifValue"`
	Country     CountryInfo     `json:"country"`
	Duty        DutyBreakdown   `json:"duty"`
	VAT         VATBreakdown    `json:"vat"`
	CustomsBase decimal.Decimal `json:"customsBase"`
	Total       decimal.Decimal `json:"total"`
	Alerts      []Alert         `json:"alerts"`
}

type CodeCandidate struct {
	Code         string          `json:"code"`
	StandardRate decimal.Decimal `json:"standardRate"`
	Description  string          `json:"description"`
}

// IncompleteCodeSignal is returned instead of a calculation when a prefix
// matches more than one full code.
type IncompleteCodeSignal struct {
	OriginalCode string          `json:"originalCode"`
	Candidates   []CodeCandidate `json:"candidates"`
}

type ResolutionStatus string

const (
	StatusComplete   ResolutionStatus = "complete"
	StatusIncomplete ResolutionStatus = "incomplete"
)

// Resolution holds exactly one of Result or Incomplete, selected by Status.
type Resolution struct {
	Status     ResolutionStatus      `json:"status"`
	Result     *CalculationResult    `json:"result,omitempty"`
	Incomplete *IncompleteCodeSignal `json:"incomplete,omitempty"`
}

func Complete(result *CalculationResult) *Resolution {
	return &Resolution{Status: StatusComplete, Result: result}
}

func Incomplete(signal *IncompleteCodeSignal) *Resolution {
	return &Resolution{Status: StatusIncomplete, Incomplete: signal}
}

type BatchError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type BatchItem struct {
	Index      int            `json:"index"`
	Request    ResolveRequest `json:"request"`
	Resolution *Resolution    `json:"resolution,omitempty"`
	Error      *BatchError    `json:"error,omitempty"`
}

type OriginComparison struct {
	Country CountryInfo     `json:"country"`
	Duty    DutyBreakdown   `json:"duty"`
	VAT     VATBreakdown    `json:"vat"`
	Total   decimal.Decimal `json:"total"`
}

type Comparison struct {
	Code       string                `json:"code"`
	Status     ResolutionStatus      `json:"status"`
	Origins    []OriginComparison    `json:"origins,omitempty"`
	Incomplete *IncompleteCodeSignal `json:"incomplete,omitempty"`
}
