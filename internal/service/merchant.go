package service

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// MerchantService exposes merchant self-service configuration
type MerchantService interface {
	GetWebhookConfig(ctx context.Context) (*dto.WebhookConfigResponse, error)
	UpdateWebhookConfig(ctx context.Context, req *dto.UpdateWebhookConfigRequest) (*dto.WebhookConfigResponse, error)
}

type merchantService struct {
	ServiceParams
}

// NewMerchantService creates a new merchant service
func NewMerchantService(params ServiceParams) MerchantService {
	return &merchantService{ServiceParams: params}
}

func (s *merchantService) GetWebhookConfig(ctx context.Context) (*dto.WebhookConfigResponse, error) {
	m, err := s.MerchantRepo.Get(ctx, types.GetMerchantID(ctx))
	if err != nil {
		return nil, err
	}
	return &dto.WebhookConfigResponse{URL: m.WebhookURL, Enabled: m.WebhookEnabled}, nil
}

func (s *merchantService) UpdateWebhookConfig(ctx context.Context, req *dto.UpdateWebhookConfigRequest) (*dto.WebhookConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.MerchantRepo.Get(ctx, types.GetMerchantID(ctx))
	if err != nil {
		return nil, err
	}

	if req.URL != "" {
		m.WebhookURL = req.URL
	}
	if req.Secret != "" {
		m.WebhookSecret = req.Secret
	}
	if req.Enabled != nil {
		m.WebhookEnabled = *req.Enabled
	}

	if err := s.MerchantRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.Logger.Infow("merchant webhook config updated",
		"merchant_id", m.ID,
		"enabled", m.WebhookEnabled,
	)

	return &dto.WebhookConfigResponse{URL: m.WebhookURL, Enabled: m.WebhookEnabled}, nil
}
