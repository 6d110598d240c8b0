package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"team_chat/internal/config"
)

// AccountAuthorizer отвечает на единственный вопрос, который это ядро
// не решает само: может ли пользователь создавать каналы в аккаунте.
type AccountAuthorizer interface {
	CanWriteAccount(ctx context.Context, userID, accountID uuid.UUID) (bool, error)
}

// AccountAuthClient обращается к внешнему сервису авторизации.
type AccountAuthClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAccountAuthClient(cfg config.AccountAuthConfig) *AccountAuthClient {
	return &AccountAuthClient{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type aclCheckRequest struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Operation string `json:"operation"`
}

type aclCheckResponse struct {
	Allowed bool `json:"allowed"`
}

func (c *AccountAuthClient) CanWriteAccount(ctx context.Context, userID, accountID uuid.UUID) (bool, error) {
	req := aclCheckRequest{
		UserID:    userID.String(),
		AccountID: accountID.String(),
		Operation: "write",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/acl/check", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("account auth service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var response aclCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Allowed, nil
}

// staticAccountAuthorizer разрешает запись любому активному участнику аккаунта.
// Используется, когда внешний сервис авторизации не настроен.
type staticAccountAuthorizer struct{}

func NewStaticAccountAuthorizer() AccountAuthorizer {
	return staticAccountAuthorizer{}
}

func (staticAccountAuthorizer) CanWriteAccount(ctx context.Context, userID, accountID uuid.UUID) (bool, error) {
	return true, nil
}
