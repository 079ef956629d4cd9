package project

import (
	"github.com/projectledger/projectledger/internal/types"
)

// Project is the owning entity of milestones and WIP periods. This core only looks projects up.
type Project struct {
	ID       string              `db:"id" json:"id"`
	Code     string              `db:"code" json:"code"`
	Name     string              `db:"name" json:"name"`
	Status   types.ProjectStatus `db:"project_status" json:"project_status"`
	Currency string              `db:"currency" json:"currency"`
	types.BaseModel
}
