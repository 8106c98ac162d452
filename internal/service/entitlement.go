// Package service contains the application services behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
	"github.com/pagevoiceapp/pagevoice-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()

// EntitlementService answers premium/free questions for a device and handles
// the simulated login and checkout flows.
type EntitlementService struct {
	store        *store.Store
	tokenService *auth.TokenService
	notifier     *notify.Center
	emitter      *sse.Manager
	billing      config.BillingConfig
	loginDelay   time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewEntitlementService creates a new entitlement service.
func NewEntitlementService(
	st *store.Store,
	tokenService *auth.TokenService,
	notifier *notify.Center,
	emitter *sse.Manager,
	cfg *config.Config,
	logger *slog.Logger,
) *EntitlementService {
	return &EntitlementService{
		store:        st,
		tokenService: tokenService,
		notifier:     notifier,
		emitter:      emitter,
		billing:      cfg.Billing,
		loginDelay:   cfg.Auth.LoginDelay,
		logger:       logger,
		now:          time.Now,
	}
}

// IsPremium reports whether the device holds a live premium grant.
// An expired record is deleted as a side effect, so the next read is cheap
// and the storage never accumulates stale grants.
func (s *EntitlementService) IsPremium(ctx context.Context, deviceID string) (bool, error) {
	record, err := s.store.CheckEntitlement(ctx, deviceID, s.now())
	if err != nil {
		return false, domainerrors.Storage("check entitlement").WithCause(err)
	}
	return record != nil, nil
}

// Status returns the derived premium/free view for a device. The feature
// table and expiry always agree with IsPremium; an expired record reports
// the free tier.
func (s *EntitlementService) Status(ctx context.Context, deviceID string) (*domain.EntitlementStatus, error) {
	record, err := s.store.CheckEntitlement(ctx, deviceID, s.now())
	if err != nil {
		return nil, domainerrors.Storage("check entitlement").WithCause(err)
	}

	if record == nil {
		return &domain.EntitlementStatus{
			IsPremium: false,
			Features:  domain.FreeFeatures(),
		}, nil
	}

	status := &domain.EntitlementStatus{
		IsPremium: true,
		ExpiresAt: record.ExpiresAt,
		Features:  domain.PremiumFeatures(),
	}
	if days, ok := record.DaysRemaining(s.now()); ok {
		status.DaysRemaining = &days
	}
	return status, nil
}

// FeaturesForDevice returns the feature table matching the device's tier.
func (s *EntitlementService) FeaturesForDevice(ctx context.Context, deviceID string) ([]domain.Feature, error) {
	premium, err := s.IsPremium(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if premium {
		return domain.PremiumFeatures(), nil
	}
	return domain.FreeFeatures(), nil
}

// IsFeatureEnabled reports whether the feature is enabled on the device's
// tier. Unknown IDs are disabled.
func (s *EntitlementService) IsFeatureEnabled(ctx context.Context, deviceID string, id domain.FeatureID) (bool, error) {
	features, err := s.FeaturesForDevice(ctx, deviceID)
	if err != nil {
		return false, err
	}
	f, ok := domain.FindFeature(features, id)
	return ok && f.Enabled, nil
}

// CheckFeatureLimit evaluates current usage against the device tier's limit
// for the feature.
func (s *EntitlementService) CheckFeatureLimit(ctx context.Context, deviceID string, id domain.FeatureID, usage int) (domain.LimitCheck, error) {
	premium, err := s.IsPremium(ctx, deviceID)
	if err != nil {
		return domain.LimitCheck{}, err
	}

	features := domain.FreeFeatures()
	if premium {
		features = domain.PremiumFeatures()
	}
	return domain.CheckLimit(features, id, usage, premium), nil
}

// SetPremiumStatus persists a premium grant for the device. A nil expiry is
// a lifetime grant. Clients watching the event stream refresh their gated UI.
func (s *EntitlementService) SetPremiumStatus(ctx context.Context, deviceID string, expiresAt *time.Time, source string) error {
	record := &domain.EntitlementRecord{
		ExpiresAt: expiresAt,
		Source:    source,
		GrantedAt: s.now(),
	}
	if record.Expired(s.now()) {
		return domainerrors.Validation("expiry must be in the future")
	}

	if err := s.store.SetEntitlement(ctx, deviceID, record); err != nil {
		return domainerrors.Storage("save entitlement").WithCause(err)
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewEntitlementUpdatedEvent(deviceID, true))
	}
	if s.notifier != nil {
		s.notifier.Success(deviceID, "Premium activated")
	}

	s.logger.Info("premium granted",
		slog.String("device_id", deviceID),
		slog.String("source", source))
	return nil
}

// ClearPremium removes the device's premium grant.
func (s *EntitlementService) ClearPremium(ctx context.Context, deviceID string) error {
	if err := s.store.DeleteEntitlement(ctx, deviceID); err != nil {
		return domainerrors.Storage("delete entitlement").WithCause(err)
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewEntitlementUpdatedEvent(deviceID, false))
	}

	s.logger.Info("premium cleared", slog.String("device_id", deviceID))
	return nil
}

// LoginRequest contains the simulated login form data.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginResponse reports the simulated login outcome.
type LoginResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

// Login performs the simulated login: a fixed artificial delay, then the user
// record is persisted and a device token issued. There is no password and no
// failure path besides cancellation and storage errors.
func (s *EntitlementService) Login(ctx context.Context, deviceID string, req LoginRequest) (*LoginResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	select {
	case <-time.After(s.loginDelay):
	case <-ctx.Done():
		return nil, fmt.Errorf("login canceled: %w", ctx.Err())
	}

	user := &domain.UserRecord{
		Email:      req.Email,
		LoggedInAt: s.now(),
	}
	if err := s.store.SetUser(ctx, deviceID, user); err != nil {
		return nil, domainerrors.Storage("save user").WithCause(err)
	}

	token, err := s.tokenService.IssueDeviceToken(deviceID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("issue device token: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Success(deviceID, "Logged in as "+user.DisplayName())
	}

	s.logger.Info("login", slog.String("device_id", deviceID), slog.String("email", req.Email))

	return &LoginResponse{Success: true, Email: req.Email, Token: token}, nil
}

// Logout clears the device's user and entitlement records.
func (s *EntitlementService) Logout(ctx context.Context, deviceID string) error {
	if err := s.store.DeleteUser(ctx, deviceID); err != nil {
		return domainerrors.Storage("delete user").WithCause(err)
	}
	if err := s.store.DeleteEntitlement(ctx, deviceID); err != nil {
		return domainerrors.Storage("delete entitlement").WithCause(err)
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewEntitlementUpdatedEvent(deviceID, false))
	}

	s.logger.Info("logout", slog.String("device_id", deviceID))
	return nil
}

// CurrentUser returns the device's logged-in user.
func (s *EntitlementService) CurrentUser(ctx context.Context, deviceID string) (*domain.UserRecord, error) {
	user, err := s.store.GetUser(ctx, deviceID)
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.Unauthorized("not logged in")
		}
		return nil, domainerrors.Storage("get user").WithCause(err)
	}
	return user, nil
}

// IsLoggedIn reports whether the device has a user record.
func (s *EntitlementService) IsLoggedIn(ctx context.Context, deviceID string) (bool, error) {
	_, err := s.store.GetUser(ctx, deviceID)
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return false, nil
		}
		return false, domainerrors.Storage("get user").WithCause(err)
	}
	return true, nil
}

// Plans returns the purchasable plans.
func (s *EntitlementService) Plans() []domain.Plan {
	return domain.Plans()
}

// StartCheckout returns the external checkout URL for the client to open.
// The purchase itself happens off-server; activation arrives later through
// SetPremiumStatus.
func (s *EntitlementService) StartCheckout(deviceID string) string {
	if s.notifier != nil {
		s.notifier.Info(deviceID, "Opening checkout...")
	}
	return s.billing.CheckoutURL
}
