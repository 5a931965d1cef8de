package sanitizer

// Options control which stages of the pipeline run for a batch.
type Options struct {
	CheckFormat      bool `json:"check_format"`
	CheckDisposable  bool `json:"check_disposable"`
	CheckMX          bool `json:"check_mx"`
	RemoveDuplicates bool `json:"remove_duplicates"`
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{
		CheckFormat:      true,
		CheckDisposable:  true,
		CheckMX:          true,
		RemoveDuplicates: true,
	}
}
