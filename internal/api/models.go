package api

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/validation"
)

const (
	msgPasswordsDiffer = "Passwords do not match"
	msgPasswordReused  = "New password must be different from current password"
)

func passwordsMatch(field, password, confirm string) validation.Errors {
	if password != confirm {
		return validation.Errors{validation.ValueError(field, msgPasswordsDiffer)}
	}
	return nil
}

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	Username        string `json:"username"         validate:"required,username"`
	Password        string `json:"password"         validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name"       validate:"required,min=1,max=50"`
	LastName        string `json:"last_name"        validate:"required,min=1,max=50"`
	BirthDate       string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AcceptTerms     bool   `json:"accept_terms"     validate:"accepted"`
}

// Validate checks the password confirmation.
func (r RegisterRequest) Validate() validation.Errors {
	return passwordsMatch("confirm_password", r.Password, r.ConfirmPassword)
}

// Input converts the request into service input. Email and username are
// lower-cased.
func (r RegisterRequest) Input() service.NewUserInput {
	return newUserInput(r.Email, r.Username, r.Password, r.FirstName, r.LastName, r.BirthDate)
}

func newUserInput(email, username, password, first, last, birthDate string) service.NewUserInput {
	in := service.NewUserInput{
		Email:     validation.NormalizeEmail(email),
		Username:  validation.NormalizeUsername(username),
		Password:  password,
		FirstName: first,
		LastName:  last,
	}
	if birthDate != "" {
		if d, err := time.Parse(time.DateOnly, birthDate); err == nil {
			in.BirthDate = &d
		}
	}
	return in
}

// UserCreateRequest defines the payload an admin uses to create an account.
type UserCreateRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Username  string `json:"username"   validate:"required,username"`
	Password  string `json:"password"   validate:"required,password"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=50"`
	BirthDate string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Input converts the request into service input.
func (r UserCreateRequest) Input() service.NewUserInput {
	return newUserInput(r.Email, r.Username, r.Password, r.FirstName, r.LastName, r.BirthDate)
}

// BatchCreateRequest wraps several UserCreateRequest values. The batch size
// limit is enforced by the service so the error names the limit.
type BatchCreateRequest struct {
	Users []UserCreateRequest `json:"users" validate:"required,min=1,dive"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=1"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token           string `json:"token"            validate:"required,min=1"`
	Password        string `json:"password"         validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Validate checks the password confirmation.
func (r ResetPasswordRequest) Validate() validation.Errors {
	return passwordsMatch("confirm_password", r.Password, r.ConfirmPassword)
}

// VerifyEmailRequest carries a mailed verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,min=1"`
}

// PasswordChangeRequest changes the signed-in user's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=1"`
	NewPassword     string `json:"new_password"     validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Validate checks the confirmation and that the password actually changes.
func (r PasswordChangeRequest) Validate() validation.Errors {
	if errs := passwordsMatch("confirm_password", r.NewPassword, r.ConfirmPassword); errs != nil {
		return errs
	}
	if r.NewPassword == r.CurrentPassword {
		return validation.Errors{validation.ValueError("new_password", msgPasswordReused)}
	}
	return nil
}

// UserUpdateRequest is a partial profile update. Absent fields are unchanged.
type UserUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,min=1,max=50"`
	Bio       *string `json:"bio,omitempty"        validate:"omitempty,max=500"`
	Website   *string `json:"website,omitempty"    validate:"omitempty,httpurl"`
	Location  *string `json:"location,omitempty"   validate:"omitempty,max=100"`
	Avatar    *string `json:"avatar,omitempty"     validate:"omitempty,httpurl"`
	Phone     *string `json:"phone,omitempty"      validate:"omitempty,phone"`
}

// Patch converts the request into a service patch.
func (r UserUpdateRequest) Patch() service.UserPatch {
	return service.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Website:   r.Website,
		Location:  r.Location,
		AvatarURL: r.Avatar,
		Phone:     r.Phone,
	}
}

// RoleUpdateRequest changes a user's role. UserID is only read by the
// admin route that carries it in the body.
type RoleUpdateRequest struct {
	UserID string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	Role   string `json:"role"              validate:"required,oneof=user moderator admin"`
}

// BanRequest bans a user until ExpiresAt or permanently.
type BanRequest struct {
	UserID    string     `json:"user_id,omitempty"    validate:"omitempty,uuid"`
	Reason    string     `json:"reason"               validate:"required,min=1,max=500"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" validate:"omitempty,future"`
	Permanent bool       `json:"permanent"`
}

// Validate requires an expiry unless the ban is permanent.
func (r BanRequest) Validate() validation.Errors {
	if !r.Permanent && r.ExpiresAt == nil {
		return validation.Errors{validation.ValueError("expires_at", "expires_at is required unless permanent is set")}
	}
	return nil
}

// Input converts the request into service input.
func (r BanRequest) Input() service.BanInput {
	return service.BanInput{Reason: r.Reason, ExpiresAt: r.ExpiresAt, Permanent: r.Permanent}
}

// UnbanRequest names the user to unban on the admin route.
type UnbanRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// NotificationSettingsRequest mirrors domain.NotificationSettings.
type NotificationSettingsRequest struct {
	Email *bool `json:"email" validate:"required"`
	Push  *bool `json:"push"  validate:"required"`
	SMS   *bool `json:"sms"   validate:"required"`
}

// PrivacySettingsRequest mirrors domain.PrivacySettings.
type PrivacySettingsRequest struct {
	ProfileVisibility string `json:"profile_visibility" validate:"required,oneof=public private friends"`
	ShowEmail         bool   `json:"show_email"`
	ShowOnline        bool   `json:"show_online"`
}

// SettingsRequest replaces the user's settings document.
type SettingsRequest struct {
	Theme         string                      `json:"theme"         validate:"required,oneof=light dark auto"`
	Language      string                      `json:"language"      validate:"required,len=2"`
	Timezone      string                      `json:"timezone"      validate:"required,max=64"`
	Notifications NotificationSettingsRequest `json:"notifications" validate:"required"`
	Privacy       PrivacySettingsRequest      `json:"privacy"       validate:"required"`
}

// Validate checks that the timezone is a known IANA name.
func (r SettingsRequest) Validate() validation.Errors {
	if r.Timezone == "" {
		return nil
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return validation.Errors{validation.ValueError("timezone", "unknown time zone")}
	}
	return nil
}

// Settings converts the request into domain settings.
func (r SettingsRequest) Settings() domain.UserSettings {
	deref := func(b *bool) bool { return b != nil && *b }
	return domain.UserSettings{
		Theme:    r.Theme,
		Language: r.Language,
		Timezone: r.Timezone,
		Notifications: domain.NotificationSettings{
			Email: deref(r.Notifications.Email),
			Push:  deref(r.Notifications.Push),
			SMS:   deref(r.Notifications.SMS),
		},
		Privacy: domain.PrivacySettings{
			ProfileVisibility: r.Privacy.ProfileVisibility,
			ShowEmail:         r.Privacy.ShowEmail,
			ShowOnline:        r.Privacy.ShowOnline,
		},
	}
}

// PostCreateRequest defines the payload for creating a post.
type PostCreateRequest struct {
	Title       string     `json:"title"                  validate:"required,min=1,max=200"`
	Slug        string     `json:"slug,omitempty"         validate:"omitempty,slug"`
	Content     string     `json:"content"                validate:"required,min=1"`
	Excerpt     string     `json:"excerpt,omitempty"      validate:"omitempty,max=500"`
	CoverImage  string     `json:"cover_image,omitempty"  validate:"omitempty,httpurl"`
	Tags        []string   `json:"tags"                   validate:"required,min=1,max=10,dive,min=1,max=50"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Status      string     `json:"status,omitempty"       validate:"omitempty,oneof=draft published archived"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Input converts the request into service input.
func (r PostCreateRequest) Input() service.PostInput {
	return service.PostInput{
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		Excerpt:     r.Excerpt,
		CoverImage:  r.CoverImage,
		Tags:        r.Tags,
		CategoryID:  r.CategoryID,
		Status:      domain.PostStatus(r.Status),
		PublishedAt: r.PublishedAt,
	}
}

// PostUpdateRequest is a partial post update.
type PostUpdateRequest struct {
	Title       *string    `json:"title,omitempty"        validate:"omitempty,min=1,max=200"`
	Slug        *string    `json:"slug,omitempty"         validate:"omitempty,slug"`
	Content     *string    `json:"content,omitempty"      validate:"omitempty,min=1"`
	Excerpt     *string    `json:"excerpt,omitempty"      validate:"omitempty,max=500"`
	CoverImage  *string    `json:"cover_image,omitempty"  validate:"omitempty,httpurl"`
	Tags        []string   `json:"tags,omitempty"         validate:"omitempty,min=1,max=10,dive,min=1,max=50"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Status      *string    `json:"status,omitempty"       validate:"omitempty,oneof=draft published archived"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Patch converts the request into a service patch.
func (r PostUpdateRequest) Patch() service.PostPatch {
	p := service.PostPatch{
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		Excerpt:     r.Excerpt,
		CoverImage:  r.CoverImage,
		Tags:        r.Tags,
		CategoryID:  r.CategoryID,
		PublishedAt: r.PublishedAt,
	}
	if r.Status != nil {
		s := domain.PostStatus(*r.Status)
		p.Status = &s
	}
	return p
}

// CommentCreateRequest defines the payload for creating a comment.
type CommentCreateRequest struct {
	PostID   uuid.UUID  `json:"post_id"             validate:"required"`
	Content  string     `json:"content"             validate:"required,min=1,max=1000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// CategoryCreateRequest defines the payload for creating a category. An
// empty slug is derived from the name.
type CategoryCreateRequest struct {
	Name        string     `json:"name"                  validate:"required,min=1,max=100"`
	Slug        string     `json:"slug,omitempty"        validate:"omitempty,slug"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=500"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// APIKeyCreateRequest defines the payload for issuing an API key.
type APIKeyCreateRequest struct {
	Name      string     `json:"name"                 validate:"required,min=1,max=100"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" validate:"omitempty,future"`
	Scopes    []string   `json:"scopes"               validate:"required,min=1,dive,min=1,max=50"`
}

// WebhookCreateRequest defines the payload for registering a webhook.
// Active defaults to true when omitted.
type WebhookCreateRequest struct {
	URL    string   `json:"url"              validate:"required,httpurl"`
	Events []string `json:"events"           validate:"required,min=1,dive,required"`
	Secret string   `json:"secret,omitempty" validate:"omitempty,min=16"`
	Active *bool    `json:"active,omitempty"`
}

// Validate checks every event against the known set.
func (r WebhookCreateRequest) Validate() validation.Errors {
	var errs validation.Errors
	for i, e := range r.Events {
		if e != "" && !domain.IsWebhookEvent(e) {
			errs = append(errs, validation.ValueError(
				"events["+strconv.Itoa(i)+"]", "unknown event type "+e))
		}
	}
	return errs
}

// ModerationRequest defines the payload for a moderation decision.
type ModerationRequest struct {
	ContentID    uuid.UUID `json:"content_id"             validate:"required"`
	ContentType  string    `json:"content_type,omitempty" validate:"omitempty,oneof=post comment"`
	Action       string    `json:"action"                 validate:"required,oneof=approve reject flag remove"`
	Reason       string    `json:"reason,omitempty"       validate:"omitempty,max=500"`
	NotifyAuthor *bool     `json:"notify_author,omitempty"`
}

// Input converts the request into service input. NotifyAuthor defaults to true.
func (r ModerationRequest) Input() service.ModerationInput {
	notify := r.NotifyAuthor == nil || *r.NotifyAuthor
	return service.ModerationInput{
		ContentID:    r.ContentID,
		ContentType:  r.ContentType,
		Action:       domain.ModerationAction(r.Action),
		Reason:       r.Reason,
		NotifyAuthor: notify,
	}
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Bio           string     `json:"bio,omitempty"`
	Website       string     `json:"website,omitempty"`
	Location      string     `json:"location,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	BirthDate     string     `json:"birth_date,omitempty"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	BannedUntil   *time.Time `json:"banned_until,omitempty"`
	BanPermanent  bool       `json:"ban_permanent,omitempty"`
	BanReason     string     `json:"ban_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func userToResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Bio:           u.Bio,
		Website:       u.Website,
		Location:      u.Location,
		Avatar:        u.AvatarURL,
		Phone:         u.Phone,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		BannedUntil:   u.BannedUntil,
		BanPermanent:  u.BanPermanent,
		BanReason:     u.BanReason,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.BirthDate != nil {
		resp.BirthDate = u.BirthDate.Format(time.DateOnly)
	}
	return resp
}

func usersToResponse(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out
}

// AuthResponse defines the successful response for register and login.
type AuthResponse struct {
	User UserResponse `json:"user"`

	// AccessToken is the JWT used for API authorization.
	AccessToken string `json:"token"`

	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the RFC 3339 time the access token expires.
	ExpiresAt string `json:"expires_at"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AvatarResponse returns the stored avatar URL.
type AvatarResponse struct {
	URL string `json:"url"`
}

// UserStatsResponse is the admin dashboard summary.
type UserStatsResponse struct {
	Total         int            `json:"total"`
	Active        int            `json:"active"`
	Inactive      int            `json:"inactive"`
	ByRole        map[string]int `json:"by_role"`
	RecentSignups int            `json:"recent_signups"`
}

func statsToResponse(s *store.UserStats) UserStatsResponse {
	byRole := make(map[string]int, len(s.ByRole))
	for role, n := range s.ByRole {
		byRole[string(role)] = n
	}
	return UserStatsResponse{
		Total:         s.Total,
		Active:        s.Active,
		Inactive:      s.Inactive,
		ByRole:        byRole,
		RecentSignups: s.RecentSignups,
	}
}

// PostResponse is the public representation of a post.
type PostResponse struct {
	ID          uuid.UUID  `json:"id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Tags        []string   `json:"tags"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Status      string     `json:"status"`
	Flagged     bool       `json:"flagged,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func postToResponse(p *domain.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		CoverImage:  p.CoverImage,
		Tags:        p.Tags,
		CategoryID:  p.CategoryID,
		Status:      string(p.Status),
		Flagged:     p.Flagged,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CommentResponse is the public representation of a comment.
type CommentResponse struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Content   string     `json:"content"`
	Hidden    bool       `json:"hidden,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func commentToResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Hidden:    c.Hidden,
		CreatedAt: c.CreatedAt,
	}
}

// CategoryResponse is the public representation of a category.
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func categoryToResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
	}
}

// APIKeyResponse describes a key without its secret.
type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreatedAPIKeyResponse is returned once, when a key is issued.
type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

func apiKeyToResponse(k *domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		Scopes:     k.Scopes,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}

// WebhookResponse describes a webhook. The secret is never returned.
type WebhookResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	HasSecret bool      `json:"has_secret"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func webhookToResponse(w *domain.Webhook) WebhookResponse {
	return WebhookResponse{
		ID:        w.ID,
		URL:       w.URL,
		Events:    w.Events,
		HasSecret: w.Secret != "",
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
	}
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}
