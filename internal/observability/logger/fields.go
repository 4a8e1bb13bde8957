package logger

import "go.uber.org/zap"

// Campos estándar de negocio.

// TenantID crea un campo para el ID del tenant.
func TenantID(v string) zap.Field {
	return zap.String("tenant_id", v)
}

// Subdomain crea un campo para el subdomain del tenant.
func Subdomain(v string) zap.Field {
	return zap.String("subdomain", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// SessionID crea un campo para el ID de sesión.
func SessionID(v string) zap.Field {
	return zap.String("session_id", v)
}

// TokenID crea un campo para el ID de un API token.
func TokenID(v string) zap.Field {
	return zap.String("token_id", v)
}

// Provider crea un campo para el provider de login federado.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Campos estándar de sistema.

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}
