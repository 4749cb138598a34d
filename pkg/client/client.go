// Package client is a typed HTTP client for the chat presence API
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
	"strings"
	"time"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/http/dto"
	"github.com/jgirmay/chatroom/pkg/models"
)

// Client wraps HTTP client for API communication
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Heartbeat refreshes the user's presence in a room
func (c *Client) Heartbeat(ctx context.Context, roomID, userID uint) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "presence"), dto.UserRefRequest{UserID: userID}, nil)
}

// Leave removes the user's presence from a room
func (c *Client) Leave(ctx context.Context, roomID, userID uint) error {
	return c.do(ctx, http.MethodDelete, roomPath(roomID, "presence"), dto.UserRefRequest{UserID: userID}, nil)
}

// GlobalHeartbeat marks the user online everywhere
func (c *Client) GlobalHeartbeat(ctx context.Context, userID uint) error {
	return c.do(ctx, http.MethodPost, "/presence", dto.UserRefRequest{UserID: userID}, nil)
}

// GoOffline marks the user offline
func (c *Client) GoOffline(ctx context.Context, userID uint) error {
	return c.do(ctx, http.MethodDelete, "/presence", dto.UserRefRequest{UserID: userID}, nil)
}

// RoomOnline lists the participants online in a room
func (c *Client) RoomOnline(ctx context.Context, roomID uint) ([]models.OnlineParticipant, error) {
	var online []models.OnlineParticipant
	if err := c.do(ctx, http.MethodGet, roomPath(roomID, "online-participants"), nil, &online); err != nil {
		return nil, err
	}
	return online, nil
}

// GlobalOnline lists users online anywhere, leaving out exclude when non-zero
func (c *Client) GlobalOnline(ctx context.Context, exclude uint) ([]models.OnlineUser, error) {
	path := "/online-users"
	if exclude != 0 {
		path += "?" + url.Values{"exclude": {formatID(exclude)}}.Encode()
	}
	var users []models.OnlineUser
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Conversations returns one row per counterpart, newest first
func (c *Client) Conversations(ctx context.Context, userID uint) ([]models.ConversationView, error) {
	var views []models.ConversationView
	if err := c.do(ctx, http.MethodGet, "/private-conversations/"+formatID(userID), nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// SendPrivate sends a direct message
func (c *Client) SendPrivate(ctx context.Context, senderID, receiverID uint, content string) (*models.PrivateMessage, error) {
	req := dto.SendPrivateMessageRequest{SenderID: senderID, ReceiverID: receiverID, Content: content}
	var msg models.PrivateMessage
	if err := c.do(ctx, http.MethodPost, "/private-messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkAsRead marks every unread message from sender to receiver as read
func (c *Client) MarkAsRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	var resp dto.MarkAsReadResponse
	req := dto.MarkAsReadRequest{SenderID: senderID, ReceiverID: receiverID}
	if err := c.do(ctx, http.MethodPut, "/private-messages/mark-as-read", req, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (c *Client) do(ctx context.Context, method, path string, data, result interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns the server's error envelope back into an AppError
func decodeError(status int, body []byte) error {
	var envelope struct {
		Error *apperrors.AppError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &apperrors.AppError{
			Type:    apperrors.TypeInternal,
			Code:    apperrors.CodeInternal,
			Message: fmt.Sprintf("API error (status %d): %s", status, strings.TrimSpace(string(body))),
			Status:  status,
		}
	}
	envelope.Error.Status = status
	return envelope.Error
}

func roomPath(roomID uint, suffix string) string {
	return "/rooms/" + formatID(roomID) + "/" + suffix
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
