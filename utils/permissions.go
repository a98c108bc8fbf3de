package utils

import (
	"github.com/bwmarrin/discordgo"
)

// HasPermission reports whether the invoking member holds perm. Administrator
// implies every permission.
func HasPermission(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	perms := i.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 || perms&perm == perm
}

// HasRole reports whether member holds roleID
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// IsStaff reports whether the member can moderate: Manage Messages or the
// configured staff role
func IsStaff(i *discordgo.InteractionCreate, staffRoleID string) bool {
	return HasPermission(i, discordgo.PermissionManageMessages) || HasRole(i.Member, staffRoleID)
}

// RequirePermission returns ErrForbidden unless the member holds perm
func RequirePermission(i *discordgo.InteractionCreate, perm int64) error {
	if !HasPermission(i, perm) {
		return ErrForbidden
	}
	return nil
}
