package domain

import (
	"sort"
	"strings"
	"time"
)

type Project struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields a project must carry before it is persisted.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Violation("project name is required")
	}
	if p.OwnerID == "" {
		return Violation("project owner is required")
	}
	if !p.Status.Valid() {
		return Violation("invalid project status %q", p.Status)
	}
	if !p.IsMember(p.OwnerID) {
		return Violation("project owner must be a member")
	}
	return nil
}

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// IsMember reports whether userID belongs to the project. The owner is
// always a member, even if MemberIDs was loaded without it.
func (p *Project) IsMember(userID string) bool {
	if userID == "" {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddMember adds userID to the member set. It reports whether the set
// changed; adding an existing member is a no-op.
func (p *Project) AddMember(userID string) bool {
	if p.hasMemberEntry(userID) {
		return false
	}
	p.MemberIDs = append(p.MemberIDs, userID)
	sort.Strings(p.MemberIDs)
	return true
}

// RemoveMember drops userID from the member set. The owner cannot be
// removed; transfer ownership first.
func (p *Project) RemoveMember(userID string) error {
	if p.IsOwner(userID) {
		return NewError(ErrCannotRemoveOwner, "transfer ownership before removing the owner",
			"project_id", p.ID, "user_id", userID)
	}
	if !p.IsMember(userID) {
		return NewError(ErrNotAMember, "user is not a member of the project",
			"project_id", p.ID, "user_id", userID)
	}
	kept := p.MemberIDs[:0]
	for _, id := range p.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.MemberIDs = kept
	return nil
}

// TransferOwnership makes newOwnerID the owner. The new owner must already
// be a member; the previous owner stays a member.
func (p *Project) TransferOwnership(newOwnerID string) error {
	if !p.IsMember(newOwnerID) {
		return NewError(ErrNotAMember, "new owner must be a project member",
			"project_id", p.ID, "user_id", newOwnerID)
	}
	p.AddMember(p.OwnerID)
	p.OwnerID = newOwnerID
	return nil
}

// Authorize checks whether userID may perform action on the project.
// Owners may do everything; members get memberActions; everyone else is
// refused.
func (p *Project) Authorize(userID string, action Action) error {
	if p.IsOwner(userID) {
		return nil
	}
	if p.IsMember(userID) && memberActions[action] {
		return nil
	}
	return NewError(ErrUnauthorized, "action not permitted",
		"project_id", p.ID, "user_id", userID, "action", string(action))
}

// IsAuthorized is the boolean form of Authorize.
func (p *Project) IsAuthorized(userID string, action Action) bool {
	return p.Authorize(userID, action) == nil
}

// AuthorizeTaskDelete lets the owner delete any task and a member delete the
// tasks they created.
func (p *Project) AuthorizeTaskDelete(userID string, t *Task) error {
	if p.IsOwner(userID) {
		return nil
	}
	if p.IsMember(userID) && t.CreatorID == userID {
		return nil
	}
	return NewError(ErrUnauthorized, "only the project owner or the task creator may delete a task",
		"project_id", p.ID, "user_id", userID, "action", string(ActionDeleteTask))
}

// AuthorizeMemberRemoval lets the owner remove anyone and a member remove
// themselves.
func (p *Project) AuthorizeMemberRemoval(actorID, userID string) error {
	if p.IsOwner(actorID) {
		return nil
	}
	if actorID == userID && p.IsMember(actorID) {
		return nil
	}
	return NewError(ErrUnauthorized, "only the project owner may remove other members",
		"project_id", p.ID, "user_id", actorID, "action", string(ActionManageMembers))
}

func (p *Project) hasMemberEntry(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
