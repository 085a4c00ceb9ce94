package core

import (
	"context"
	"fmt"

	"github.com/edvin/labdeploy/internal/model"
)

// DefaultListLimit is the number of records ListRecent returns when the
// caller does not ask for a positive limit.
const DefaultListLimit = 50

const deploymentColumns = `id, requested_at, difficulty, status, instance_id`

// DeploymentStore persists deployment requests in Postgres.
type DeploymentStore struct {
	db DB
}

func NewDeploymentStore(db DB) *DeploymentStore {
	return &DeploymentStore{db: db}
}

// Insert records d as QUEUED. RequestedAt and Difficulty are written here and
// never touched by any other statement.
func (s *DeploymentStore) Insert(ctx context.Context, d *model.Deployment) error {
	if d.ID == "" {
		return &StorageError{Op: "insert deployment", Kind: KindInvalid, Err: fmt.Errorf("empty id")}
	}
	if !d.Difficulty.Valid() {
		return &StorageError{Op: "insert deployment", ID: d.ID, Kind: KindInvalid, Err: fmt.Errorf("invalid difficulty %q", d.Difficulty)}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO deployments (id, requested_at, difficulty, status)
		 VALUES ($1, $2, $3, $4)`,
		d.ID, d.RequestedAt, string(d.Difficulty), model.StatusQueued,
	)
	if err != nil {
		return storageError("insert deployment", d.ID, err)
	}
	d.Status = model.StatusQueued
	return nil
}

// UpdateStatus overwrites the status of deployment id. It is used by the
// provisioning worker; a missing id is reported as KindNotFound. QUEUED is
// only set by Insert and FAILED_PUBLISH only by MarkFailedPublish, so both
// are rejected here as KindInvalid.
func (s *DeploymentStore) UpdateStatus(ctx context.Context, id, status string) error {
	if !model.ValidStatus(status) {
		return &StorageError{Op: "update deployment status", ID: id, Kind: KindInvalid, Err: fmt.Errorf("unknown status %q", status)}
	}
	if status == model.StatusQueued || status == model.StatusFailedPublish {
		return &StorageError{Op: "update deployment status", ID: id, Kind: KindInvalid, Err: fmt.Errorf("status %q is not settable by UpdateStatus", status)}
	}
	return s.execOne(ctx, "update deployment status", id,
		`UPDATE deployments SET status = $1 WHERE id = $2`, status, id)
}

// MarkFailedPublish moves a QUEUED deployment to FAILED_PUBLISH. Records in
// any other state are left alone and reported as KindNotFound.
func (s *DeploymentStore) MarkFailedPublish(ctx context.Context, id string) error {
	return s.execOne(ctx, "mark deployment failed publish", id,
		`UPDATE deployments SET status = $1 WHERE id = $2 AND status = $3`,
		model.StatusFailedPublish, id, model.StatusQueued)
}

// SetInstanceID records the provisioned instance for deployment id.
func (s *DeploymentStore) SetInstanceID(ctx context.Context, id, instanceID string) error {
	if instanceID == "" {
		return &StorageError{Op: "set deployment instance", ID: id, Kind: KindInvalid, Err: fmt.Errorf("empty instance id")}
	}
	return s.execOne(ctx, "set deployment instance", id,
		`UPDATE deployments SET instance_id = $1 WHERE id = $2`, instanceID, id)
}

func (s *DeploymentStore) execOne(ctx context.Context, op, id, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return storageError(op, id, err)
	}
	if tag.RowsAffected() == 0 {
		return storageError(op, id, errNoRowsAffected)
	}
	return nil
}

func (s *DeploymentStore) GetByID(ctx context.Context, id string) (*model.Deployment, error) {
	var d model.Deployment
	err := s.db.QueryRow(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE id = $1`, id,
	).Scan(&d.ID, &d.RequestedAt, &d.Difficulty, &d.Status, &d.InstanceID)
	if err != nil {
		return nil, storageError("get deployment", id, err)
	}
	return &d, nil
}

// ListRecent returns up to limit deployments, most recently requested first.
// Equal timestamps fall back to insertion order, newest first.
func (s *DeploymentStore) ListRecent(ctx context.Context, limit int) ([]model.Deployment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+deploymentColumns+` FROM deployments
		 ORDER BY requested_at DESC, seq DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, storageError("list deployments", "", err)
	}
	defer rows.Close()

	deployments := []model.Deployment{}
	for rows.Next() {
		var d model.Deployment
		if err := rows.Scan(&d.ID, &d.RequestedAt, &d.Difficulty, &d.Status, &d.InstanceID); err != nil {
			return nil, storageError("scan deployment", "", err)
		}
		deployments = append(deployments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate deployments", "", err)
	}
	return deployments, nil
}
