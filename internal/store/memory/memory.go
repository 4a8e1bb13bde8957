// Package memory implementa los repositorios en memoria. Se usa en tests y
// en el driver "memory" para desarrollo; la semántica de unicidad replica
// las constraints de la DB bajo un único mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// Store contiene todo el estado. Las escrituras serializan bajo mu, así el
// check de unicidad y el insert son atómicos igual que una constraint.
type Store struct {
	mu sync.RWMutex

	tenants      map[string]*repository.Tenant
	subdomainIdx map[string]string // subdomain → tenant id

	users    map[string]*repository.User
	emailIdx map[string]string // tenantID + "\x00" + email → user id

	sessions    map[string]*repository.Session // session_id → session
	sessHashIdx map[string]string              // token_hash → session_id

	apiTokens  map[string]*repository.APIToken
	tokHashIdx map[string]string // token_hash → token id
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		tenants:      map[string]*repository.Tenant{},
		subdomainIdx: map[string]string{},
		users:        map[string]*repository.User{},
		emailIdx:     map[string]string{},
		sessions:     map[string]*repository.Session{},
		sessHashIdx:  map[string]string{},
		apiTokens:    map[string]*repository.APIToken{},
		tokHashIdx:   map[string]string{},
	}
}

func (s *Store) Tenants() repository.TenantRepository     { return &tenantRepo{s} }
func (s *Store) Users() repository.UserRepository         { return &userRepo{s} }
func (s *Store) Sessions() repository.SessionRepository   { return &sessionRepo{s} }
func (s *Store) APITokens() repository.APITokenRepository { return &apiTokenRepo{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func emailKey(tenantID, email string) string { return tenantID + "\x00" + email }

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ─── tenants ───

type tenantRepo struct{ s *Store }

func (r *tenantRepo) Create(_ context.Context, input repository.CreateTenantInput) (*repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.subdomainIdx[input.Subdomain]; dup {
		return nil, repository.ErrConflict
	}
	maxUsers := input.MaxUsers
	if maxUsers <= 0 {
		maxUsers = repository.DefaultMaxUsers
	}
	now := time.Now().UTC()
	t := &repository.Tenant{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Subdomain: input.Subdomain,
		MaxUsers:  maxUsers,
		IsActive:  true,
		Settings:  copyMap(input.Settings),
		Metadata:  copyMap(input.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.tenants[t.ID] = t
	r.s.subdomainIdx[t.Subdomain] = t.ID

	out := *t
	return &out, nil
}

func (r *tenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.subdomainIdx[subdomain]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *r.s.tenants[id]
	return &out, nil
}

func (r *tenantRepo) GetByID(_ context.Context, id string) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (r *tenantRepo) List(context.Context) ([]repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]repository.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *tenantRepo) Update(_ context.Context, id string, input repository.UpdateTenantInput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return repository.ErrNotFound
	}
	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.MaxUsers != nil && *input.MaxUsers > 0 {
		t.MaxUsers = *input.MaxUsers
	}
	if input.Settings != nil {
		t.Settings = copyMap(input.Settings)
	}
	if input.Metadata != nil {
		t.Metadata = copyMap(input.Metadata)
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *tenantRepo) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsActive = false
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *tenantRepo) CountActiveUsers(_ context.Context, id string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.users {
		if u.TenantID == id && u.IsActive {
			n++
		}
	}
	return n, nil
}

// ─── users ───

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := emailKey(input.TenantID, input.Email)
	if _, dup := r.s.emailIdx[key]; dup {
		return nil, repository.ErrConflict
	}
	now := time.Now().UTC()
	u := &repository.User{
		ID:           uuid.NewString(),
		TenantID:     input.TenantID,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		PasswordSalt: input.PasswordSalt,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		SSOID:        input.SSOID,
		IsActive:     true,
		Metadata:     copyMap(input.Metadata),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[u.ID] = u
	r.s.emailIdx[key] = u.ID

	out := *u
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, tenantID, email string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emailIdx[emailKey(tenantID, email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *r.s.users[id]
	return &out, nil
}

func (r *userRepo) GetByID(_ context.Context, userID string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepo) GetBySSOID(_ context.Context, tenantID, ssoID string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.TenantID == tenantID && u.SSOID != "" && u.SSOID == ssoID {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ListByTenant(_ context.Context, tenantID string) ([]repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.User
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) FindTenantIDsByEmail(_ context.Context, email string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for _, u := range r.s.users {
		if u.Email == email && u.IsActive {
			out = append(out, u.TenantID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	t := at.UTC()
	u.LastLogin = &t
	return nil
}

func (r *userRepo) SetActive(_ context.Context, userID string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, userID, hash, salt string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordSalt = salt
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ─── sessions ───

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess := &repository.Session{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		TokenHash: input.TokenHash,
		ExpiresAt: input.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if input.IPAddress != "" {
		ip := input.IPAddress
		sess.IPAddress = &ip
	}
	if input.UserAgent != "" {
		ua := input.UserAgent
		sess.UserAgent = &ua
	}
	r.s.sessions[sess.SessionID] = sess
	r.s.sessHashIdx[sess.TokenHash] = sess.SessionID

	out := *sess
	return &out, nil
}

func (r *sessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*repository.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.sessHashIdx[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sess := r.s.sessions[id]
	// Una fila expirada se trata como ausente.
	if sess.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	out := *sess
	return &out, nil
}

func (r *sessionRepo) Delete(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[sessionID]; ok {
		delete(r.s.sessHashIdx, sess.TokenHash)
		delete(r.s.sessions, sessionID)
	}
	return nil
}

func (r *sessionRepo) DeleteAllByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessHashIdx, sess.TokenHash)
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) DeleteExpired(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, sess := range r.s.sessions {
		if sess.Expired(now) {
			delete(r.s.sessHashIdx, sess.TokenHash)
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// ─── api tokens ───

type apiTokenRepo struct{ s *Store }

func (r *apiTokenRepo) Create(_ context.Context, input repository.CreateAPITokenInput) (*repository.APIToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Constraint parcial: nombre único entre tokens ACTIVOS del usuario.
	for _, t := range r.s.apiTokens {
		if t.UserID == input.UserID && t.IsActive && t.Name == input.Name {
			return nil, repository.ErrConflict
		}
	}
	tok := &repository.APIToken{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		TenantID:    input.TenantID,
		Name:        input.Name,
		TokenPrefix: input.TokenPrefix,
		TokenHash:   input.TokenHash,
		ExpiresAt:   input.ExpiresAt,
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}
	r.s.apiTokens[tok.ID] = tok
	r.s.tokHashIdx[tok.TokenHash] = tok.ID

	out := *tok
	return &out, nil
}

func (r *apiTokenRepo) GetByHash(_ context.Context, tokenHash string) (*repository.APIToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.tokHashIdx[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tok := r.s.apiTokens[id]
	if tok == nil || !tok.IsActive {
		return nil, repository.ErrNotFound
	}
	out := *tok
	return &out, nil
}

func (r *apiTokenRepo) ListActiveByUser(_ context.Context, userID string) ([]repository.APIToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.APIToken
	for _, t := range r.s.apiTokens {
		if t.UserID == userID && t.IsActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *apiTokenRepo) UpdateLastUsed(_ context.Context, tokenID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.apiTokens[tokenID]
	if !ok {
		return repository.ErrNotFound
	}
	u := at.UTC()
	t.LastUsed = &u
	return nil
}

func (r *apiTokenRepo) Revoke(_ context.Context, userID, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.apiTokens[tokenID]
	// Cross-user: mismo ErrNotFound, no se revela que el token existe.
	if !ok || t.UserID != userID || !t.IsActive {
		return repository.ErrNotFound
	}
	t.IsActive = false
	return nil
}

func (r *apiTokenRepo) RevokeAllByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, t := range r.s.apiTokens {
		if t.UserID == userID && t.IsActive {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *apiTokenRepo) DeleteExpired(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, t := range r.s.apiTokens {
		if t.Expired(now) {
			delete(r.s.tokHashIdx, t.TokenHash)
			delete(r.s.apiTokens, id)
			n++
		}
	}
	return n, nil
}

func (r *apiTokenRepo) StatsByUser(_ context.Context, userID string) (*repository.APITokenStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &repository.APITokenStats{}
	for _, t := range r.s.apiTokens {
		if t.UserID != userID || !t.IsActive {
			continue
		}
		stats.TotalActive++
		if t.ExpiresAt == nil {
			stats.NeverExpire++
		} else {
			stats.WillExpire++
		}
		if t.LastUsed != nil {
			stats.UsedOnce++
		}
	}
	return stats, nil
}
