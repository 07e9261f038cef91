/*
rates.go - Billable rate resolution

The only pricing logic in the system, a three-tier fallback:

  1. explicit ProjectRoleRate on the assignment's project
  2. inherited ProjectRoleRate from the nearest ancestor folder
  3. the staff member's role default_billable_rate
  4. otherwise rate 0, source "none"

A node's own explicit rate always wins over any ancestor's. The ancestry
walk is iterative with a visited set rather than recursive, since folder
depth is user-controlled.
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSource labels where a resolved rate came from.
type RateSource string

const (
	RateSourceProjectRate RateSource = "project_role_rate"
	RateSourceInherited   RateSource = "inherited_project_role_rate"
	RateSourceRoleDefault RateSource = "role_default_billable_rate"
	RateSourceNone        RateSource = "none"
)

// RateResolution is the outcome of a rate lookup.
type RateResolution struct {
	Rate              decimal.Decimal `json:"rate"`
	Source            RateSource      `json:"source"`
	IsInherited       bool            `json:"is_inherited"`
	DefiningProjectID string          `json:"defining_project_id,omitempty"`
}

// ProjectRoleRateFor resolves the billable rate for a role on a project by
// checking the project's own rate rows first, then walking the parent
// chain. Returns nil when no node in the ancestry defines a rate.
func (e *Engine) ProjectRoleRateFor(ctx context.Context, projectID, roleID string) (*RateResolution, error) {
	visited := map[string]bool{}
	currentID := projectID

	for currentID != "" && !visited[currentID] {
		visited[currentID] = true

		rates, err := e.Store.ListRoleRates(ctx, currentID)
		if err != nil {
			return nil, err
		}
		for _, r := range rates {
			if r.RoleID == roleID {
				return &RateResolution{
					Rate:              r.BillableRate,
					Source:            RateSourceProjectRate,
					IsInherited:       currentID != projectID,
					DefiningProjectID: currentID,
				}, nil
			}
		}

		project, err := e.Store.GetProject(ctx, currentID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			break
		}
		currentID = project.ParentProjectID
	}
	return nil, nil
}

// EffectiveBillableRate resolves the rate that applies to an assignment.
// The project hierarchy is consulted for the role named in RoleOnProject;
// on a miss the staff member's role default applies.
func (e *Engine) EffectiveBillableRate(ctx context.Context, a Assignment) (RateResolution, error) {
	if a.RoleOnProject != "" {
		role, err := e.Store.GetRoleByName(ctx, a.RoleOnProject)
		if err != nil {
			return RateResolution{}, err
		}
		if role != nil {
			res, err := e.ProjectRoleRateFor(ctx, a.ProjectID, role.ID)
			if err != nil {
				return RateResolution{}, err
			}
			if res != nil {
				if res.IsInherited {
					res.Source = RateSourceInherited
				}
				return *res, nil
			}
		}
	}

	staff, err := e.Store.GetStaff(ctx, a.StaffID)
	if err != nil {
		return RateResolution{}, err
	}
	if staff != nil {
		role, err := e.Store.GetRole(ctx, staff.RoleID)
		if err != nil {
			return RateResolution{}, err
		}
		if role != nil && role.DefaultBillableRate != nil {
			return RateResolution{
				Rate:   *role.DefaultBillableRate,
				Source: RateSourceRoleDefault,
			}, nil
		}
	}

	return RateResolution{Rate: decimal.Zero, Source: RateSourceNone}, nil
}

// GhostBillableRate resolves the rate for a ghost staff placeholder: the
// project hierarchy first, then the ghost's role default.
func (e *Engine) GhostBillableRate(ctx context.Context, g GhostStaff) (RateResolution, error) {
	res, err := e.ProjectRoleRateFor(ctx, g.ProjectID, g.RoleID)
	if err != nil {
		return RateResolution{}, err
	}
	if res != nil {
		if res.IsInherited {
			res.Source = RateSourceInherited
		}
		return *res, nil
	}
	role, err := e.Store.GetRole(ctx, g.RoleID)
	if err != nil {
		return RateResolution{}, err
	}
	if role != nil && role.DefaultBillableRate != nil {
		return RateResolution{Rate: *role.DefaultBillableRate, Source: RateSourceRoleDefault}, nil
	}
	return RateResolution{Rate: decimal.Zero, Source: RateSourceNone}, nil
}
