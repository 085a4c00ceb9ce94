package request

// CreateDeployment is the body of POST /api/deploy. Difficulty is checked
// (case-insensitively) by the deployment service, not here, so a missing
// value is reported the same way as an unknown one.
type CreateDeployment struct {
	Difficulty string `json:"difficulty" validate:"max=32"`
}
