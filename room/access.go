package room

// Access is the ownership/invite/lock state of an area or hub.
//
// Owners are always implicitly invited: AddOwner also invites, and Uninvite never
// revokes ownership. The owner list is not deduplicated.
type Access struct {
	lock    LockStatus
	owners  []int
	invited []int
}

func NewAccess(initial LockStatus) Access {
	return Access{lock: initial}
}

func (a *Access) LockStatus() LockStatus {
	return a.lock
}

func (a *Access) Lock() {
	a.lock = Locked
}

func (a *Access) Unlock() {
	a.lock = Free
}

func (a *Access) Spectatable() {
	a.lock = Spectatable
}

func (a *Access) AddOwner(id int) {
	a.owners = append(a.owners, id)
	a.invited = append(a.invited, id)
}

// RemoveOwner drops id from owners and invited. It returns true only when this removal
// emptied the owner list of a non-free area, in which case the area is unlocked.
func (a *Access) RemoveOwner(id int) bool {
	hadOwners := len(a.owners) > 0
	a.owners = removeAll(a.owners, id)
	a.invited = removeAll(a.invited, id)
	if hadOwners && len(a.owners) == 0 && a.lock != Free {
		a.lock = Free
		return true
	}
	return false
}

func (a *Access) Invite(id int) bool {
	if contains(a.invited, id) {
		return false
	}
	a.invited = append(a.invited, id)
	return true
}

func (a *Access) Uninvite(id int) bool {
	if !contains(a.invited, id) {
		return false
	}
	a.invited = removeAll(a.invited, id)
	return true
}

func (a *Access) IsOwner(id int) bool {
	return contains(a.owners, id)
}

func (a *Access) IsInvited(id int) bool {
	return contains(a.invited, id) || contains(a.owners, id)
}

func (a *Access) Owners() []int {
	return append([]int(nil), a.owners...)
}

func (a *Access) Invited() []int {
	return append([]int(nil), a.invited...)
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeAll(ids []int, id int) []int {
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}
