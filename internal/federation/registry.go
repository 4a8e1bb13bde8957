package federation

import (
	"sort"

	"github.com/dropDatabas3/tenantgate/internal/config"
)

// Registry resuelve providers por nombre. Solo registra los que tienen
// configuración completa; el resto simplemente no existe para el bridge.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry construye el registry a partir de la configuración. Un provider
// incompleto se omite en silencio (deshabilitado, no error).
func NewRegistry(cfgs map[string]config.Provider) *Registry {
	r := &Registry{providers: map[string]Provider{}}
	for name, pc := range cfgs {
		if !pc.Complete() {
			continue
		}
		if name == "entra" && pc.DirectoryID != "" {
			r.providers[name] = NewEntra(pc.ClientID, pc.ClientSecret, pc.DirectoryID, pc.RedirectURI, pc.Scopes)
			continue
		}
		r.providers[name] = NewOIDC(name, pc.ClientID, pc.ClientSecret, pc.Authority, pc.RedirectURI, pc.Scopes)
	}
	return r
}

// Register agrega o reemplaza un provider ya construido (tests, extensiones).
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get retorna el provider o nil si no está habilitado.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// Enabled indica si el provider tiene configuración completa.
func (r *Registry) Enabled(name string) bool {
	return r.providers[name] != nil
}

// Names lista los providers habilitados, ordenados.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
