package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"kredit-api/models"
)

// Stamp names the actor field a transition records.
type Stamp string

const (
	StampNone     Stamp = ""
	StampReviewer Stamp = "reviewedBy"
	StampApprover Stamp = "approvedBy"
)

// Rule defines a target status an actor role may move an application to,
// and which actor field the move stamps.
type Rule struct {
	Actor models.UserRole          `json:"actor"`
	To    models.ApplicationStatus `json:"to"`
	Stamp Stamp                    `json:"stamp,omitempty"`
}

// rules is the authoritative transition table. The current status is not
// part of the key: any listed target is reachable from any status.
var rules = []Rule{
	// Marketing picks up a submission for review
	{Actor: models.RoleMarketing, To: models.StatusUnderReview, Stamp: StampReviewer},
	// Supervisor decides
	{Actor: models.RoleMarketingSupervisor, To: models.StatusApproved, Stamp: StampApprover},
	{Actor: models.RoleMarketingSupervisor, To: models.StatusRejected, Stamp: StampApprover},
	// Back office may set anything and is never stamped
	{Actor: models.RoleBackofficeAdmin, To: models.StatusPending},
	{Actor: models.RoleBackofficeAdmin, To: models.StatusUnderReview},
	{Actor: models.RoleBackofficeAdmin, To: models.StatusApproved},
	{Actor: models.RoleBackofficeAdmin, To: models.StatusRejected},
}

// Operation is a workflow entry point gated by role.
type Operation string

const (
	OpCreate       Operation = "create"
	OpList         Operation = "list"
	OpGet          Operation = "get"
	OpUpdateStatus Operation = "update_status"
	OpStats        Operation = "stats"
)

var everyRole = []models.UserRole{
	models.RoleConsumer, models.RoleMarketing, models.RoleMarketingSupervisor, models.RoleBackofficeAdmin,
}

var staffRoles = []models.UserRole{
	models.RoleMarketing, models.RoleMarketingSupervisor, models.RoleBackofficeAdmin,
}

// operations lists who may call each operation.
var operations = map[Operation][]models.UserRole{
	OpCreate:       {models.RoleConsumer},
	OpList:         everyRole,
	OpGet:          everyRole,
	OpUpdateStatus: staffRoles,
	OpStats:        everyRole,
}

var (
	ErrOperationDenied  = errors.New("operation not allowed for role")
	ErrTransitionDenied = errors.New("transition not allowed for role")
	ErrInvalidStatus    = errors.New("invalid status")
)

type ruleKey struct {
	Actor models.UserRole
	To    models.ApplicationStatus
}

// Policy evaluates the rule table. The zero value is not usable; build one
// with NewPolicy.
type Policy struct {
	rules           []Rule
	lookup          map[ruleKey]Stamp
	strict          bool
	stampBackoffice bool
}

type Option func(*Policy)

// WithStrict controls whether (role, target) pairs missing from the table are
// refused. Off by default: any staff role may set any valid status and only
// the stamping follows the table.
func WithStrict(strict bool) Option {
	return func(p *Policy) { p.strict = strict }
}

// WithBackofficeStamping makes back-office decisions record approvedBy like a
// supervisor's would.
func WithBackofficeStamping(enabled bool) Option {
	return func(p *Policy) { p.stampBackoffice = enabled }
}

func NewPolicy(opts ...Option) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	p.rules = make([]Rule, 0, len(rules))
	p.lookup = make(map[ruleKey]Stamp, len(rules))
	for _, r := range rules {
		if p.stampBackoffice && r.Actor == models.RoleBackofficeAdmin &&
			(r.To == models.StatusApproved || r.To == models.StatusRejected) {
			r.Stamp = StampApprover
		}
		p.rules = append(p.rules, r)
		p.lookup[ruleKey{r.Actor, r.To}] = r.Stamp
	}
	return p
}

// CanPerform checks if a role may call an operation at all.
func (p *Policy) CanPerform(role models.UserRole, op Operation) error {
	for _, r := range operations[op] {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot %s", ErrOperationDenied, role, op)
}

// SeesAll reports whether list and stats queries run unscoped for role.
func (p *Policy) SeesAll(role models.UserRole) bool {
	return role.IsStaff()
}

// Authorize checks if actor may move an application to the target status
// and returns the field the move stamps.
func (p *Policy) Authorize(actor models.UserRole, to models.ApplicationStatus) (Stamp, error) {
	if err := p.CanPerform(actor, OpUpdateStatus); err != nil {
		return StampNone, err
	}
	if !to.Valid() {
		return StampNone, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	stamp, ok := p.lookup[ruleKey{actor, to}]
	if ok || !p.strict {
		return stamp, nil
	}
	return StampNone, fmt.Errorf("%w: %s cannot set status %s, allowed: %s",
		ErrTransitionDenied, actor, to, describeTargets(p.TargetsFor(actor)))
}

// TargetsFor returns every status actor may set under the table.
func (p *Policy) TargetsFor(actor models.UserRole) []models.ApplicationStatus {
	var targets []models.ApplicationStatus
	for _, r := range p.rules {
		if r.Actor == actor {
			targets = append(targets, r.To)
		}
	}
	return targets
}

// Rules returns the effective table for documentation.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

func (p *Policy) Strict() bool { return p.strict }

func (p *Policy) StampsBackoffice() bool { return p.stampBackoffice }

// TerminalStatuses are the end states of the pipeline.
func TerminalStatuses() []models.ApplicationStatus {
	return []models.ApplicationStatus{models.StatusApproved, models.StatusRejected}
}

func describeTargets(targets []models.ApplicationStatus) string {
	if len(targets) == 0 {
		return "none (read-only role)"
	}
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
