package circulation

import (
	"strings"

	"github.com/kevinaaaquil/library/models"
)

// Action is a proposed circulation transition.
type Action string

const (
	ActionReserve Action = "reserve"
	ActionRenew   Action = "renew"
	ActionIssue   Action = "issue"
	ActionReturn  Action = "return"
	ActionEdit    Action = "edit"
)

// AllActions lists actions in the order action buttons are rendered.
var AllActions = []Action{ActionReserve, ActionRenew, ActionIssue, ActionReturn, ActionEdit}

// ParseAction normalizes s and reports whether it names a known action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.TrimSpace(strings.ToLower(s)))
	for _, v := range AllActions {
		if v == a {
			return a, true
		}
	}
	return "", false
}

// capabilities is the single role -> action permission table.
var capabilities = map[models.Role]map[Action]bool{
	models.RoleStudent: {
		ActionReserve: true,
		ActionRenew:   true,
	},
	models.RoleLibrarian: {
		ActionIssue:  true,
		ActionReturn: true,
		ActionEdit:   true,
	},
	models.RoleAdmin: {
		ActionIssue:  true,
		ActionReturn: true,
		ActionEdit:   true,
	},
}

// Can reports whether role is ever permitted to take action.
func Can(role models.Role, action Action) bool {
	return capabilities[role][action]
}

// from lists the effective statuses each action may start from. A nil entry
// means any status.
var from = map[Action][]models.Status{
	ActionReserve: {models.StatusAvailable},
	ActionRenew:   {models.StatusIssued},
	ActionIssue:   {models.StatusAvailable, models.StatusReserved},
	ActionReturn:  {models.StatusIssued, models.StatusOverdue},
	ActionEdit:    nil,
}

func allowedFrom(action Action, status models.Status) bool {
	statuses, ok := from[action]
	if !ok {
		return false
	}
	if statuses == nil {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
