package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

func (s *Server) registerPremiumRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPremiumStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/premium/status",
		Summary:     "Get premium status",
		Description: "Returns the device's tier with its feature table and expiry",
		Tags:        []string{"Premium"},
	}, s.handleGetPremiumStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFeatures",
		Method:      http.MethodGet,
		Path:        "/api/v1/premium/features",
		Summary:     "Get feature table",
		Tags:        []string{"Premium"},
	}, s.handleGetFeatures)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlans",
		Method:      http.MethodGet,
		Path:        "/api/v1/premium/plans",
		Summary:     "List premium plans",
		Tags:        []string{"Premium"},
	}, s.handleGetPlans)

	huma.Register(s.api, huma.Operation{
		OperationID: "startCheckout",
		Method:      http.MethodPost,
		Path:        "/api/v1/premium/checkout",
		Summary:     "Start checkout",
		Description: "Returns the external checkout URL for the client to open",
		Tags:        []string{"Premium"},
	}, s.handleStartCheckout)

	huma.Register(s.api, huma.Operation{
		OperationID: "activatePremium",
		Method:      http.MethodPost,
		Path:        "/api/v1/premium/activate",
		Summary:     "Activate premium",
		Description: "Grants premium to the device; omit expires_at for a lifetime grant",
		Tags:        []string{"Premium"},
	}, s.handleActivatePremium)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearPremium",
		Method:      http.MethodDelete,
		Path:        "/api/v1/premium",
		Summary:     "Clear premium",
		Tags:        []string{"Premium"},
	}, s.handleClearPremium)
}

// PremiumStatusOutput wraps the premium status for Huma.
type PremiumStatusOutput struct {
	Body domain.EntitlementStatus
}

func (s *Server) handleGetPremiumStatus(ctx context.Context, _ *struct{}) (*PremiumStatusOutput, error) {
	status, err := s.services.Entitlements.Status(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &PremiumStatusOutput{Body: *status}, nil
}

// FeaturesOutput wraps the device's feature table for Huma.
type FeaturesOutput struct {
	Body struct {
		Features []domain.Feature `json:"features"`
	}
}

func (s *Server) handleGetFeatures(ctx context.Context, _ *struct{}) (*FeaturesOutput, error) {
	features, err := s.services.Entitlements.FeaturesForDevice(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}

	out := &FeaturesOutput{}
	out.Body.Features = features
	return out, nil
}

// PlansOutput wraps the plan list for Huma.
type PlansOutput struct {
	Body struct {
		Plans []domain.Plan `json:"plans"`
	}
}

func (s *Server) handleGetPlans(_ context.Context, _ *struct{}) (*PlansOutput, error) {
	out := &PlansOutput{}
	out.Body.Plans = s.services.Entitlements.Plans()
	return out, nil
}

// CheckoutOutput wraps the checkout response for Huma.
type CheckoutOutput struct {
	Body struct {
		CheckoutURL string `json:"checkout_url" doc:"External payment page to open"`
	}
}

func (s *Server) handleStartCheckout(ctx context.Context, _ *struct{}) (*CheckoutOutput, error) {
	out := &CheckoutOutput{}
	out.Body.CheckoutURL = s.services.Entitlements.StartCheckout(deviceID(ctx))
	return out, nil
}

// ActivatePremiumInput contains the premium activation request.
type ActivatePremiumInput struct {
	Body struct {
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Grant expiry; omit for lifetime"`
		Source    string     `json:"source,omitempty" doc:"Where the grant came from" example:"checkout"`
	}
}

func (s *Server) handleActivatePremium(ctx context.Context, input *ActivatePremiumInput) (*PremiumStatusOutput, error) {
	device := deviceID(ctx)

	source := input.Body.Source
	if source == "" {
		source = "manual"
	}

	if err := s.services.Entitlements.SetPremiumStatus(ctx, device, input.Body.ExpiresAt, source); err != nil {
		return nil, err
	}

	status, err := s.services.Entitlements.Status(ctx, device)
	if err != nil {
		return nil, err
	}
	return &PremiumStatusOutput{Body: *status}, nil
}

func (s *Server) handleClearPremium(ctx context.Context, _ *struct{}) (*PremiumStatusOutput, error) {
	device := deviceID(ctx)

	if err := s.services.Entitlements.ClearPremium(ctx, device); err != nil {
		return nil, err
	}

	status, err := s.services.Entitlements.Status(ctx, device)
	if err != nil {
		return nil, err
	}
	return &PremiumStatusOutput{Body: *status}, nil
}
