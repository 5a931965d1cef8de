package sanitizer

// Reason tokens attached to classified addresses. Stable so API consumers can
// switch on them.
const (
	ReasonInvalidFormat    = "invalid_format"
	ReasonDisposableDomain = "disposable_domain"
	ReasonNoMXRecords      = "no_mx_records"
	// ReasonMXInconclusive marks an address that stays valid even though its
	// MX check could not be completed within the retry budget.
	ReasonMXInconclusive = "mx_check_inconclusive"
)

// Result is the classification of one normalized address. Reason is set when
// the address is invalid, or when it is valid but the MX check was
// inconclusive.
type Result struct {
	Email   string `json:"email"`
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}

// Stats summarizes a sanitization run. Total counts non-empty normalized
// addresses before deduplication; Valid+Invalid equals the number actually
// validated.
type Stats struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
}

// Report partitions the deduplicated batch: every address lands in exactly
// one of ValidEmails or InvalidEmails.
type Report struct {
	ValidEmails   []string `json:"valid_emails"`
	InvalidEmails []Result `json:"invalid_emails"`
	Stats         Stats    `json:"stats"`
}
