package models

import "time"

// Phase names one traversal-and-transfer pass
type Phase string

const (
	PhaseDownload Phase = "download"
	PhaseUpload   Phase = "upload"
	PhaseClean    Phase = "clean"
)

// Failure records one object or file that could not be transferred
type Failure struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report aggregates the outcome of one phase
type Report struct {
	Phase        Phase         `json:"phase"`
	Bucket       string        `json:"bucket"`
	Root         string        `json:"root,omitempty"`
	Attempted    int           `json:"attempted"`
	Succeeded    int           `json:"succeeded"`
	Bytes        int64         `json:"bytes"`
	Failures     []Failure     `json:"failures,omitempty"`
	ListingError string        `json:"listingError,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Failed returns the number of recorded failures
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Complete reports whether every attempted transfer succeeded and the listing was not cut short
func (r *Report) Complete() bool {
	return len(r.Failures) == 0 && r.ListingError == ""
}

// AddFailure records a failure for key
func (r *Report) AddFailure(key, kind string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.Failures = append(r.Failures, Failure{Key: key, Kind: kind, Message: msg})
}

// Summary collects the reports of every phase executed for one request
type Summary struct {
	Intent  string   `json:"intent"`
	Reports []Report `json:"reports"`
}

// Report returns the report for phase, if that phase ran
func (s *Summary) Report(phase Phase) (Report, bool) {
	for _, r := range s.Reports {
		if r.Phase == phase {
			return r, true
		}
	}
	return Report{}, false
}

// Failed returns the total failure count across phases
func (s *Summary) Failed() int {
	n := 0
	for i := range s.Reports {
		n += s.Reports[i].Failed()
	}
	return n
}
