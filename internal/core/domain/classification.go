package domain

type Classification struct {
	Format       Format   `json:"format"`
	Intent       Intent   `json:"intent"`
	Confidence   float64  `json:"confidence"`
	Rationale    []string `json:"rationale,omitempty"`
	DeclaredName string   `json:"declared_name,omitempty"`
}

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

type EmailExtraction struct {
	Sender        string   `json:"sender"`
	SenderName    string   `json:"sender_name,omitempty"`
	SenderCompany string   `json:"sender_company,omitempty"`
	Recipients    []string `json:"recipients"`
	Subject       string   `json:"subject"`
	Date          string   `json:"date"`
	Urgent        bool     `json:"urgent"`
	Urgency       Urgency  `json:"urgency"`
	Body          string   `json:"body"`
	Snippet       string   `json:"snippet"`
}

type StructureSummary struct {
	Kind  string   `json:"kind"`
	Keys  []string `json:"keys,omitempty"`
	Count int      `json:"count"`
}

type JSONExtraction struct {
	Valid         bool              `json:"valid"`
	Formatted     string            `json:"formatted,omitempty"`
	Structure     *StructureSummary `json:"structure_summary,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	Error         string            `json:"error,omitempty"`
	ErrorLine     int               `json:"error_line,omitempty"`
	ErrorColumn   int               `json:"error_column,omitempty"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
