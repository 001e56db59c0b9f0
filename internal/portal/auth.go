package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

type Auth struct {
	base
	accounts AccountStore
	profiles ProfileStore
	tokens   TokenIssuer
}

type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type Session struct {
	Token  string     `json:"token"`
	UserID uuid.UUID  `json:"user_id"`
	Role   store.Role `json:"role"`
}

// Register creates a patient account with its profile and signs the patient in.
func (a *Auth) Register(ctx context.Context, in Registration) (*Session, error) {
	acct, err := a.accounts.CreateAccount(ctx, identity.NewAccount{
		Email:    in.Email,
		Password: in.Password,
		Metadata: map[string]any{"first_name": in.FirstName, "last_name": in.LastName},
	})
	if err != nil {
		return nil, err
	}
	err = a.profiles.Insert(ctx, store.Profile{
		ID:        acct.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      store.RolePatient,
	})
	if err != nil {
		return nil, fmt.Errorf("create patient profile: %w", err)
	}
	return a.issue(acct.ID, store.RolePatient)
}

// Login checks credentials and issues a token carrying the profile's role.
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	acct, err := a.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	prof, err := a.profiles.Get(ctx, acct.ID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return a.issue(acct.ID, prof.Role)
}

func (a *Auth) issue(id uuid.UUID, role store.Role) (*Session, error) {
	token, err := a.tokens.Issue(id, role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: id, Role: role}, nil
}
