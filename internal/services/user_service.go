package services

import (
	"context"
	"errors"
	"log"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwell/internal/authz"
	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repositories"
	"inkwell/internal/tenantdb"
)

// UserService implements the member-facing operations: inviting staff
// and listing the roster.
type UserService interface {
	Invite(ctx context.Context, inviter authz.Principal, req InviteRequest) ActionResult
	List(ctx context.Context, principal authz.Principal) ActionResult
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

var (
	errUserLimitReached = errors.New("user limit reached")
	errAlreadyInvited   = errors.New("user already invited")
)

type userService struct {
	runner      tenantdb.Runner
	tenantRepo  repositories.TenantRepository
	featureRepo repositories.FeatureRepository
	userRepo    repositories.UserRepository
	outboxRepo  repositories.OutboxRepository
	tenants     TenantService
	idp         identity.Client
}

func NewUserService(runner tenantdb.Runner, tenantRepo repositories.TenantRepository,
	featureRepo repositories.FeatureRepository, userRepo repositories.UserRepository,
	outboxRepo repositories.OutboxRepository, tenants TenantService, idp identity.Client) UserService {
	return &userService{
		runner:      runner,
		tenantRepo:  tenantRepo,
		featureRepo: featureRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		tenants:     tenants,
		idp:         idp,
	}
}

// Invite runs the checks in cost order: the policy gate and input
// validation reject before any transaction is opened.
func (s *userService) Invite(ctx context.Context, inviter authz.Principal, req InviteRequest) ActionResult {
	if !authz.CanInviteUsers(inviter.Role) {
		return Failure(KindUnauthorized, "only the publisher owner can invite users")
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return Failure(KindValidation, "invalid email address")
	}
	email := addr.Address

	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return Failure(KindValidation, "unknown role")
	}

	tenantID, err := s.tenants.ResolveOrg(ctx, inviter.OrgID)
	if errors.Is(err, repositories.ErrTenantNotFound) {
		return Failure(KindNotFound, "your organization is not yet set up")
	}
	if err != nil {
		log.Printf("ERROR: resolve org %s: %v", inviter.OrgID, err)
		return Failure(KindInternal, "could not resolve organization")
	}

	// Seat and duplicate checks run before the provider invitation is
	// created, so a rejected invite leaves no trace anywhere.
	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		if _, err := s.userRepo.GetByEmail(ctx, tx, tenantID, email); err == nil {
			return errAlreadyInvited
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return err
		}

		feature, err := s.featureRepo.Get(ctx, tx, tenantID, models.FeatureUsersLimit)
		if errors.Is(err, repositories.ErrFeatureNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !feature.Enabled || feature.Limit == nil {
			return nil
		}
		count, err := s.userRepo.CountActive(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if count >= *feature.Limit {
			return errUserLimitReached
		}
		return nil
	})
	if errors.Is(err, errAlreadyInvited) {
		return Failure(KindConflict, "a user with this email already exists")
	}
	if errors.Is(err, errUserLimitReached) {
		return Failure(KindConflict, "user limit reached for your plan")
	}
	if err != nil {
		log.Printf("ERROR: invite pre-check for %s: %v", email, err)
		return Failure(KindInternal, "could not verify invitation")
	}

	invitation, err := s.idp.CreateInvitation(ctx, inviter.OrgID, email, string(role))
	if err != nil {
		log.Printf("ERROR: identity invitation for %s: %v", email, err)
		return Failure(KindInternal, "could not create invitation")
	}

	// The pending row and the notification event commit together, so
	// either both exist or neither does.
	user := &models.User{
		ID:       uuid.New(),
		Email:    email,
		Role:     string(role),
		TenantID: tenantID,
	}
	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		tenant, err := s.tenantRepo.GetByID(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if err := s.userRepo.CreateInvited(ctx, tx, user); err != nil {
			return err
		}
		payload := models.InvitationPayload{
			Recipient:      email,
			Role:           string(role),
			TenantID:       tenantID,
			TenantName:     tenant.Name,
			ActivationLink: invitation.ActivationLink,
			InvitedBy:      inviter.UserID,
		}
		_, err = s.outboxRepo.Enqueue(ctx, tx, tenantID, models.EventInvitationSent, payload)
		return err
	})
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		return Failure(KindConflict, "a user with this email already exists")
	}
	if err != nil {
		log.Printf("ERROR: invite %s to tenant %s: %v", email, tenantID, err)
		return Failure(KindInternal, "could not record invitation")
	}

	log.Printf("invited %s to tenant %s as %s", email, tenantID, role)
	return Success(map[string]any{
		"user_id": user.ID,
		"email":   email,
		"role":    role,
		"status":  models.UserStatusPending,
	})
}

func (s *userService) List(ctx context.Context, principal authz.Principal) ActionResult {
	tenantID, err := s.tenants.ResolveOrg(ctx, principal.OrgID)
	if errors.Is(err, repositories.ErrTenantNotFound) {
		return Failure(KindNotFound, "your organization is not yet set up")
	}
	if err != nil {
		log.Printf("ERROR: resolve org %s: %v", principal.OrgID, err)
		return Failure(KindInternal, "could not resolve organization")
	}

	var users []models.User
	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		var err error
		users, err = s.userRepo.List(ctx, tx, tenantID)
		return err
	})
	if err != nil {
		log.Printf("ERROR: list users for tenant %s: %v", tenantID, err)
		return Failure(KindInternal, "could not list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return Success(users)
}
