package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/naveenspark/hackforge/pkg/domain"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.post(ctx, "/auth/login", creds, &res); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &res, nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.post(ctx, "/auth/register", reg, &res); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &res, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := c.get(ctx, "/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// UpdateProfile applies patch to the user's profile and returns the result.
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := c.Request(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), patch, &u); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return &u, nil
}

// UploadField is the multipart field name image uploads are sent under.
const UploadField = "image"

// UploadAvatar uploads an image as the user's avatar and returns its URL.
func (c *Client) UploadAvatar(ctx context.Context, userID, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filename)
	if err != nil {
		return "", fmt.Errorf("client.UploadAvatar: %w", unexpected(err))
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("client.UploadAvatar: %w", unexpected(err))
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("client.UploadAvatar: %w", unexpected(err))
	}

	var res struct {
		URL string `json:"url"`
	}
	path := "/users/" + url.PathEscape(userID) + "/avatar"
	if err := c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf, &res); err != nil {
		return "", fmt.Errorf("client.UploadAvatar: %w", err)
	}
	return res.URL, nil
}
