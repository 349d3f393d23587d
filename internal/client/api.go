package client

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mentapp/mentapp-go/internal/session"
)

// AuthResponse is the shape shared by login, register, OAuth exchange, and
// refresh. The backend has shipped both camelCase and snake_case variants
// over time, plus a legacy "token" field, so the accessors below tolerate
// all of them.
type AuthResponse struct {
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	AccessToken       string `json:"accessToken,omitempty"`
	AccessTokenSnake  string `json:"access_token,omitempty"`
	LegacyToken       string `json:"token,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	RefreshTokenSnake string `json:"refresh_token,omitempty"`

	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
	UserNum  FlexInt64 `json:"user_num,omitempty"`
}

// BearerToken returns the access token under whichever name the backend
// used, or "" when none was sent.
func (r *AuthResponse) BearerToken() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.AccessTokenSnake != "":
		return r.AccessTokenSnake
	default:
		return r.LegacyToken
	}
}

// AnyRefreshToken returns the refresh token under whichever name the
// backend used, or "" when the backend did not rotate it.
func (r *AuthResponse) AnyRefreshToken() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.RefreshTokenSnake
}

// FlexInt64 decodes a JSON number that some backend versions send as a
// quoted string.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt64(n)
	return nil
}

// MentItem is one ment as returned by the list endpoints.
type MentItem struct {
	MentID         int64  `json:"mentId"`
	ContentKo      string `json:"contentKo"`
	ContentLo      string `json:"contentLo,omitempty"`
	Tag            string `json:"tag"`
	AuthorNickname string `json:"authorNickname"`
	CreatedAt      string `json:"createdAt"`
	IsApproved     int    `json:"isApproved"`
	Reason         string `json:"reason,omitempty"`
}

// BookmarkItem is one bookmark as returned by /my/bookmarks.
type BookmarkItem struct {
	BookmarkNum int64  `json:"bookmark_num"`
	MentNum     int64  `json:"ment_num"`
	Comment     string `json:"comment"`
	MentTag     string `json:"ment_tag"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ProfileResponse is the /profile payload.
type ProfileResponse struct {
	Nickname      string `json:"nickname"`
	PostCount     int    `json:"postCount"`
	TotalLikes    int    `json:"totalLikes"`
	BookmarkCount int    `json:"bookmarkCount"`
}

// TranslateResponse wraps the translation payload, which is frequently a
// JSON string nested inside this JSON field. See UnwrapTranslation.
type TranslateResponse struct {
	Content string `json:"content"`
}

// MessageResponse is the generic {"message": ...} acknowledgment body.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// SubmittedMent is the acknowledgment for a newly submitted ment.
type SubmittedMent struct {
	Tag       string `json:"tag"`
	ContentKo string `json:"contentKo"`
}

// LoginRequest carries local credentials.
type LoginRequest struct {
	LocalID  string `json:"localId"`
	Password string `json:"password"`
}

// RegisterRequest carries a new local account.
type RegisterRequest struct {
	LocalID  string `json:"localId"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// Login signs in with local credentials and installs the returned session.
func (c *Client) Login(ctx context.Context, localID, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/login",
		Body:      LoginRequest{LocalID: localID, Password: password},
		SkipAuth:  true,
		NoRefresh: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := c.installSession(localID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a local account and installs the returned session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/register",
		Body:      req,
		SkipAuth:  true,
		NoRefresh: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := c.installSession(req.LocalID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeOAuthCode trades an OAuth authorization code for tokens via the
// backend and installs the returned session. Runs unauthenticated: the
// user is not signed in yet.
func (c *Client) ExchangeOAuthCode(ctx context.Context, provider, code string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/oauth/callback/" + provider,
		Body:      map[string]string{"code": code},
		SkipAuth:  true,
		NoRefresh: true,
	}, &resp)
	if err != nil {
		return nil, &Error{Code: CodeOAuthFailed, Message: err.Error()}
	}

	if resp.BearerToken() == "" {
		return nil, codeError(CodeInvalidAccessToken, 0)
	}

	if err := c.installSession(resp.Email, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// installSession records a successful authentication in the session store.
func (c *Client) installSession(localID string, resp *AuthResponse) error {
	username := resp.Username
	if username == "" {
		username = localID
	}
	return c.session.SetAuthed(
		session.Profile{LocalID: localID, Username: username, UserNum: int64(resp.UserNum)},
		session.Tokens{AccessToken: resp.BearerToken(), RefreshToken: resp.AnyRefreshToken()},
	)
}

// refreshAccessToken calls the refresh endpoint. The backend takes the
// refresh token in a dedicated header rather than the body. The call runs
// with skip-auth semantics: no Authorization header and no recursive 401
// handling.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/refreshtoken",
		Headers:   map[string]string{"authorization-refresh": refreshToken},
		SkipAuth:  true,
		NoRefresh: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// InitFromRefresh recovers a session at process start using only the
// durable refresh token. Returns true when an access token was obtained.
// Any failure leaves the session fully cleared, never half-populated.
func (c *Client) InitFromRefresh(ctx context.Context) (bool, error) {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return false, nil
	}

	resp, err := c.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		slog.Debug("session recovery failed", "error", err)
		if clearErr := c.session.ClearAuthed(); clearErr != nil {
			return false, clearErr
		}
		return false, nil
	}

	accessToken := resp.BearerToken()
	if accessToken == "" {
		if clearErr := c.session.ClearAuthed(); clearErr != nil {
			return false, clearErr
		}
		return false, nil
	}

	if err := c.session.UpdateTokens(accessToken, resp.AnyRefreshToken()); err != nil {
		return false, err
	}
	slog.Debug("session recovered from refresh token")
	return true, nil
}

// Logout tells the backend to drop the session, then clears local state.
// Local state is cleared even when the network call fails; a logout must
// never leave the user signed in on this machine.
func (c *Client) Logout(ctx context.Context) error {
	reqErr := c.Do(ctx, Request{Method: http.MethodPost, Path: "/logout"}, nil)
	if err := c.session.ClearAuthed(); err != nil {
		return err
	}
	return reqErr
}

// DeleteAccount removes the account server-side and clears local state.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/delete/user"}, nil); err != nil {
		return err
	}
	return c.session.ClearAuthed()
}

// MentList fetches the public ment feed. The endpoint tolerates anonymous
// calls and is excluded from the refresh flow by design: a 401 here means
// the backend is misbehaving, not that the session expired.
func (c *Client) MentList(ctx context.Context) ([]MentItem, error) {
	var ments []MentItem
	err := c.Do(ctx, Request{Path: "/ment/list", NoRefresh: true}, &ments)
	if err != nil {
		return nil, err
	}
	return ments, nil
}

// SubmitMent submits a new ment for moderation.
func (c *Client) SubmitMent(ctx context.Context, comment string) (*SubmittedMent, error) {
	var resp SubmittedMent
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/request/comment",
		Body:   map[string]string{"comment": comment},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingMents lists ments awaiting moderation. Admin only, enforced by
// the backend.
func (c *Client) PendingMents(ctx context.Context) ([]MentItem, error) {
	var ments []MentItem
	err := c.Do(ctx, Request{Path: "/admin/ment/pending"}, &ments)
	if err != nil {
		return nil, err
	}
	return ments, nil
}

// ApproveMent approves a pending ment.
func (c *Client) ApproveMent(ctx context.Context, mentID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/add/comment?mentId=%d", mentID),
	}, nil)
}

// RejectMent rejects a pending ment.
func (c *Client) RejectMent(ctx context.Context, mentID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/request/negative?mentId=%d", mentID),
	}, nil)
}

// AddBookmark bookmarks a ment for the signed-in user.
func (c *Client) AddBookmark(ctx context.Context, mentID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/add/bookmark?mentId=%d", mentID),
	}, nil)
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, mentID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/delete/bookmark?mentId=%d", mentID),
	}, nil)
}

// MyBookmarks lists the signed-in user's bookmarks.
func (c *Client) MyBookmarks(ctx context.Context) ([]BookmarkItem, error) {
	var bookmarks []BookmarkItem
	err := c.Do(ctx, Request{Path: "/my/bookmarks"}, &bookmarks)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// GetProfile fetches the signed-in user's profile stats.
func (c *Client) GetProfile(ctx context.Context) (*ProfileResponse, error) {
	var profile ProfileResponse
	err := c.Do(ctx, Request{Path: "/profile"}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Translate translates a Korean comment to Lao. The wrapped payload goes
// through UnwrapTranslation since the backend's encoding varies.
func (c *Client) Translate(ctx context.Context, comment string) (string, error) {
	var resp TranslateResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/translate",
		Body:   map[string]string{"comment": comment},
	}, &resp)
	if err != nil {
		return "", err
	}
	return UnwrapTranslation(resp.Content), nil
}
