package model

// Deployment status constants. QUEUED and FAILED_PUBLISH are assigned by the
// request service; the rest are written by the provisioning worker.
const (
	StatusQueued        = "QUEUED"
	StatusFailedPublish = "FAILED_PUBLISH"
	StatusProvisioning  = "PROVISIONING"
	StatusRunning       = "RUNNING"
	StatusFailed        = "FAILED"
)

// ValidStatus reports whether s is a known deployment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusQueued, StatusFailedPublish, StatusProvisioning, StatusRunning, StatusFailed:
		return true
	}
	return false
}
