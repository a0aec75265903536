package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Dan9191/user-service/internal/config"
	"github.com/sirupsen/logrus"
)

// RemoteValidator handles integration with the external auth service
type RemoteValidator struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewRemoteValidator initializes a new auth service client
func NewRemoteValidator(cfg *config.Config, log *logrus.Logger) *RemoteValidator {
	return &RemoteValidator{
		url: cfg.AuthServiceURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	UserID   int64  `json:"userId"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Validate posts the token to the auth service and returns the resolved
// identity. Any transport failure or valid=false yields an error; callers
// treat that as an anonymous request.
func (v *RemoteValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	body, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url+"/api/auth/validate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Valid {
		return nil, ErrInvalidToken
	}

	v.log.Debugf("Token validated for user %d with role %s", result.UserID, result.Role)
	return &Identity{
		UserID:   result.UserID,
		Role:     result.Role,
		Username: result.Username,
	}, nil
}
