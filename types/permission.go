package types

import (
	"sort"
	"strings"
)

// Permission is a bit set of moderation capabilities.
type Permission uint32

const (
	PermissionKick Permission = 1 << iota
	PermissionBan
	PermissionBgLock
	PermissionModifyUsers
	PermissionCM
	PermissionEvidenceMod
	PermissionMotd
	PermissionAnnounce
	PermissionModChat
	PermissionUncm
	PermissionBypassLocks
	PermissionIgnoreBgList
	PermissionJukebox
)

const (
	PermissionNone  Permission = 0
	PermissionSuper Permission = 0xFFFFFFFF
)

var permissionNames = map[string]Permission{
	"NONE":          PermissionNone,
	"KICK":          PermissionKick,
	"BAN":           PermissionBan,
	"BGLOCK":        PermissionBgLock,
	"MODIFY_USERS":  PermissionModifyUsers,
	"CM":            PermissionCM,
	"EVI_MOD":       PermissionEvidenceMod,
	"MOTD":          PermissionMotd,
	"ANNOUNCE":      PermissionAnnounce,
	"MODCHAT":       PermissionModChat,
	"UNCM":          PermissionUncm,
	"BYPASS_LOCKS":  PermissionBypassLocks,
	"IGNORE_BGLIST": PermissionIgnoreBgList,
	"JUKEBOX":       PermissionJukebox,
	"SUPER":         PermissionSuper,
}

// ParsePermission maps a configured permission name to its bit; unknown names yield false.
func ParsePermission(name string) (Permission, bool) {
	p, ok := permissionNames[strings.ToUpper(strings.TrimSpace(name))]
	return p, ok
}

// Has reports whether every bit of other is present. PermissionNone is always held.
func (p Permission) Has(other Permission) bool {
	return p&other == other
}

func (p Permission) String() string {
	if p == PermissionNone {
		return "NONE"
	}
	if p == PermissionSuper {
		return "SUPER"
	}
	names := make([]string, 0)
	for name, bit := range permissionNames {
		if bit == PermissionNone || bit == PermissionSuper {
			continue
		}
		if p.Has(bit) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// Role is a named permission set, assigned to moderator accounts.
type Role struct {
	Name        string
	Permissions Permission
}
