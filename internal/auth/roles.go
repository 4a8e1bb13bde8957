package auth

import "github.com/dropDatabas3/tenantgate/internal/domain/repository"

// Capability es una acción que un rol puede ejecutar. La capa HTTP consulta
// capabilities, nunca compara strings de rol.
type Capability string

const (
	CapManageTenant  Capability = "tenant:manage"
	CapManageUsers   Capability = "users:manage"
	CapWriteData     Capability = "data:write"
	CapReadData      Capability = "data:read"
	CapManageTokens  Capability = "tokens:manage"
	CapViewOwnTokens Capability = "tokens:view"
)

// RoleCapabilities es la tabla cerrada rol → capabilities. Un rol fuera de la
// enumeración no tiene ninguna.
var RoleCapabilities = map[repository.Role][]Capability{
	repository.RoleAdmin: {
		CapManageTenant, CapManageUsers,
		CapWriteData, CapReadData,
		CapManageTokens, CapViewOwnTokens,
	},
	repository.RoleUser: {
		CapWriteData, CapReadData,
		CapManageTokens, CapViewOwnTokens,
	},
	repository.RoleReadonly: {
		CapReadData, CapViewOwnTokens,
	},
}

// HasCapability indica si el rol incluye la capability.
func HasCapability(role repository.Role, cap Capability) bool {
	for _, c := range RoleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}
