package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

// tempPasswordLength is the length of generated first sign-in passwords.
const tempPasswordLength = 12

// UserStore is the persistence the auth service needs.
type UserStore interface {
	storage.UserStore
	GetTenantByUser(ctx context.Context, userID string) (*models.Tenant, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
	TenantID  string      `json:"tenant_id,omitempty"`
}

// RegisterTenantInput is a tenant self-registration.
type RegisterTenantInput struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" validate:"required,max=150"`
	Phone       string `json:"phone" validate:"max=15"`
	HouseNumber string `json:"house_number" validate:"required,max=20"`
}

// CreateUserInput is an admin-created account. A blank password generates one.
type CreateUserInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Phone     string `json:"phone" validate:"max=15"`
	Role      string `json:"role" validate:"required,oneof=estate_admin manager technician tenant"`
}

// CreatedUser carries the new account and, when generated, its temporary password.
type CreatedUser struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporary_password,omitempty"`
}

// AuthService handles sign-in, registration and account approval.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         UserStore
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
		now:           time.Now,
	}
}

// Login authenticates a user and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	s.logger.Info("Login request", "username", username)

	if username == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login failed", "username", username, "error", err)
		return nil, err
	}

	var tenantID string
	if user.Role == models.RoleTenant {
		tenant, err := s.store.GetTenantByUser(ctx, user.ID)
		switch {
		case err == nil:
			tenantID = tenant.ID
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to load tenancy: %w", err)
		}
	}

	token, expires, err := s.jwtManager.Generate(user, tenantID)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expires, User: *user, TenantID: tenantID}, nil
}

// RegisterTenant creates a pending tenant account awaiting admin approval.
func (s *AuthService) RegisterTenant(ctx context.Context, in RegisterTenantInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       in.Username,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		Role:           models.RoleTenant,
		ApprovalStatus: models.ApprovalPending,
		HouseNumber:    strings.TrimSpace(in.HouseNumber),
	}
	if err := s.provision(ctx, user, in.Password); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, fmt.Sprintf("New tenant registration: %s for house %s awaits approval.", user.FullName(), user.HouseNumber))
	s.logger.Info("Tenant registered", "user_id", user.ID, "house_number", user.HouseNumber)
	return user, nil
}

// CreateUser lets an admin create an approved account of any role.
func (s *AuthService) CreateUser(ctx context.Context, actor auth.Principal, in CreateUserInput) (*CreatedUser, error) {
	if err := authorize(actor, auth.ManageUsers); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, Invalid("role", err.Error())
	}

	result := &CreatedUser{}
	password := in.Password
	if password == "" {
		password, err = auth.GeneratePassword(tempPasswordLength)
		if err != nil {
			return nil, err
		}
		result.TemporaryPassword = password
	}

	now := s.now()
	user := &models.User{
		Username:       in.Username,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		Role:           role,
		ApprovalStatus: models.ApprovalApproved,
		ApprovedBy:     actor.UserID,
		ApprovedAt:     &now,
	}
	if err := s.provision(ctx, user, password); err != nil {
		return nil, err
	}
	result.User = user

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role, "created_by", actor.UserID)
	return result, nil
}

// Bootstrap creates an approved account without an acting principal.
// It is used by the CLI to create the first administrator.
func (s *AuthService) Bootstrap(ctx context.Context, user *models.User, password string) error {
	user.ApprovalStatus = models.ApprovalApproved
	return s.provision(ctx, user, password)
}

func (s *AuthService) provision(ctx context.Context, user *models.User, password string) error {
	err := s.authenticator.Provision(ctx, user, password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, storage.ErrConflict):
		return Invalid("username", "Username already registered")
	case errors.Is(err, auth.ErrWeakPassword):
		return Invalid("password", err.Error())
	}
	return err
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor auth.Principal) (*models.User, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, actor.UserID)
}

// ListPending returns accounts awaiting approval.
func (s *AuthService) ListPending(ctx context.Context, actor auth.Principal) ([]*models.User, error) {
	if err := authorize(actor, auth.ApproveUsers); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, storage.UserFilter{Approval: models.ApprovalPending})
	return nonNil(users), err
}

// ListUsers returns accounts, optionally filtered by role.
func (s *AuthService) ListUsers(ctx context.Context, actor auth.Principal, role models.Role) ([]*models.User, error) {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, storage.UserFilter{Role: role})
	return nonNil(users), err
}

// Approve activates a pending account and notifies its owner.
func (s *AuthService) Approve(ctx context.Context, actor auth.Principal, userID string) (*models.User, error) {
	return s.decide(ctx, actor, userID, models.ApprovalApproved, "")
}

// Reject declines a pending account with a reason.
func (s *AuthService) Reject(ctx context.Context, actor auth.Principal, userID, reason string) (*models.User, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, Invalid("reason", "This field is required")
	}
	return s.decide(ctx, actor, userID, models.ApprovalRejected, reason)
}

func (s *AuthService) decide(ctx context.Context, actor auth.Principal, userID string, status models.ApprovalStatus, reason string) (*models.User, error) {
	if err := authorize(actor, auth.ApproveUsers); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ApprovalStatus != models.ApprovalPending {
		return nil, Invalid("approval_status", "User is not pending approval")
	}

	if err := s.store.SetApproval(ctx, userID, status, actor.UserID, s.now(), reason); err != nil {
		return nil, err
	}

	if status == models.ApprovalApproved {
		s.notify(ctx, userID, "Your account has been approved. You can now sign in.", "/login")
	}
	s.logger.Info("Account reviewed", "user_id", userID, "status", status, "reviewed_by", actor.UserID)
	return s.store.GetUser(ctx, userID)
}

func (s *AuthService) notify(ctx context.Context, userID, message, link string) {
	n := &models.Notification{RecipientID: userID, Message: message, Link: link}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("Notification failed", "recipient_id", userID, "error", err)
	}
}

func (s *AuthService) notifyAdmins(ctx context.Context, message string) {
	admins, err := s.store.ListUsers(ctx, storage.UserFilter{Role: models.RoleEstateAdmin})
	if err != nil {
		s.logger.Warn("Admin lookup failed", "error", err)
		return
	}
	for _, a := range admins {
		s.notify(ctx, a.ID, message, "/approvals")
	}
}
