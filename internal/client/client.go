package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
)

// Client представляет HTTP-клиент для чат-сервиса
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetToken устанавливает access-токен для последующих запросов
func (c *Client) SetToken(token string) {
	c.token = token
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type RegisterRequest struct {
	AccountID   string `json:"account_id,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type CreateChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type createDMRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
}

type sendMessageRequest struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type editMessageRequest struct {
	Text string `json:"text"`
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// Login выполняет вход и сохраняет полученный access-токен
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.AccessToken
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Channels(ctx context.Context) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) CreateChannel(ctx context.Context, req CreateChannelRequest) (*domain.Channel, error) {
	var channel domain.Channel
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/channel", req, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) Channel(ctx context.Context, channelID string) (*domain.Channel, error) {
	var channel domain.Channel
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/channel/"+url.PathEscape(channelID), nil, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) UpdateChannel(ctx context.Context, channelID string, req CreateChannelRequest) (*domain.Channel, error) {
	var channel domain.Channel
	if err := c.do(ctx, http.MethodPut, "/api/v1/chat/channel/"+url.PathEscape(channelID), req, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) DMs(ctx context.Context) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/dms", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) CreateDM(ctx context.Context, targetUserID uuid.UUID) (*domain.Channel, error) {
	var channel domain.Channel
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/dm", createDMRequest{TargetUserID: targetUserID}, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// Messages загружает страницу сообщений канала (от старых к новым)
func (c *Client) Messages(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
	path := "/api/v1/chat/messages/" + url.PathEscape(channelID)
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if before != nil {
		query.Set("before", before.Format(time.RFC3339Nano))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var messages []*domain.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) Send(ctx context.Context, channelID, text string) (*domain.Message, error) {
	var message domain.Message
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/message", sendMessageRequest{ChannelID: channelID, Text: text}, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *Client) Edit(ctx context.Context, messageID, text string) (*domain.Message, error) {
	var message domain.Message
	if err := c.do(ctx, http.MethodPut, "/api/v1/chat/message/"+url.PathEscape(messageID), editMessageRequest{Text: text}, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *Client) Delete(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/chat/message/"+url.PathEscape(messageID), nil, nil)
}

func (c *Client) AddMember(ctx context.Context, channelID string, userID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/chat/channel/"+url.PathEscape(channelID)+"/member", addMemberRequest{UserID: userID}, nil)
}

func (c *Client) RemoveMember(ctx context.Context, channelID string, userID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/chat/channel/"+url.PathEscape(channelID)+"/member/"+userID.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Error == "" {
		apiErr.Error = string(raw)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, apiErr.Error)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", apperrors.ErrForbidden, apiErr.Error)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, apiErr.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", apperrors.ErrBadRequest, apiErr.Error)
	default:
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Error)
	}
}
