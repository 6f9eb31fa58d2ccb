package utils

import "github.com/melkan/community-platform/internal/model"

// IsOwnerOrRole is the shared authorization predicate for resource
// mutations: the caller must own the resource, or hold the required
// role. Forum posts, exchanges and garden listings all gate their
// update/delete handlers on this with model.RoleAdmin as the override.
func IsOwnerOrRole(ownerID, subjectID uint64, roles []model.Role, required model.Role) bool {
	if ownerID == subjectID {
		return true
	}
	return model.HasRole(roles, required)
}
