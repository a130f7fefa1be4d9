package domain

// Progress is one snapshot of the orchestrator's run state, as emitted on
// the SSE progress stream and returned by the status endpoint.
type Progress struct {
	Status   RunStatus `json:"status"`
	Progress *int      `json:"progress"`
	Message  *string   `json:"message"`
	RunID    *int64    `json:"run_id"`
	Error    *string   `json:"error"`
}

// IntPtr and StrPtr / Int64Ptr are small helpers for building Progress
// values without repeating address-of-local-copy boilerplate at call sites.
func IntPtr(v int) *int          { return &v }
func StrPtr(v string) *string    { return &v }
func Int64Ptr(v int64) *int64    { return &v }
